package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRecord(t *testing.T) {
	cases := []struct {
		in   string
		want Record
	}{
		{"23-1-0", Record{Wins: 23, Losses: 1}},
		{"29–0–0 (1 NC)", Record{Wins: 29, NoContests: 1}},
		{"10–2–1", Record{Wins: 10, Losses: 2, Draws: 1}},
		{" 5-5-0 (2 NC) ", Record{Wins: 5, Losses: 5, NoContests: 2}},
		{"28–12 (1 NC)", Record{Wins: 28, Losses: 12, NoContests: 1}},
		{"20–1–1", Record{Wins: 20, Losses: 1, Draws: 1}},
		{"17-0", Record{Wins: 17}},
		{"", Record{}},
	}
	for _, tc := range cases {
		got, err := ParseRecord(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseRecordRejectsGarbage(t *testing.T) {
	for _, in := range []string{"record", "w-l-d", "23-1-0 (NC)"} {
		_, err := ParseRecord(in)
		require.Error(t, err, in)
	}
}

func TestRecordRoundtrip(t *testing.T) {
	for _, r := range []Record{
		{Wins: 23, Losses: 1},
		{Wins: 29, NoContests: 1},
		{Wins: 0, Losses: 0, Draws: 0},
	} {
		got, err := ParseRecord(FormatRecord(r))
		require.NoError(t, err)
		require.Equal(t, r, got)
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"12 July 2025", "2025-07-12"},
		{"July 12, 2025", "2025-07-12"},
		{"12 Jul 2025", "2025-07-12"},
		{"Jul 12, 2025", "2025-07-12"},
		{"2025-07-12", "2025-07-12"},
		{"07/12/2025", "2025-07-12"},
		{"July 2025", "2025-07-01"},
		{"Nov 12, 1993[3]", "1993-11-12"},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got.Format("2006-01-02"), tc.in)
	}

	_, err := ParseDate("someday soon")
	require.Error(t, err)
}

func TestParseDateMonthOnlyIsFirstOfMonth(t *testing.T) {
	got, err := ParseDate("March 2026")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestHeightConversion(t *testing.T) {
	require.Equal(t, 193, FeetInchesToCm(6, 4))
	require.Equal(t, 152, FeetInchesToCm(5, 0))

	cm, err := ParseHeight("6 ft 4 in")
	require.NoError(t, err)
	require.Equal(t, 193, cm)

	cm, err = ParseHeight("5 ft")
	require.NoError(t, err)
	require.Equal(t, 152, cm)

	_, err = ParseHeight("tall")
	require.Error(t, err)
}

func TestWeightAndReachConversion(t *testing.T) {
	require.Equal(t, 120, PoundsToKg(265))
	require.Equal(t, 70, PoundsToKg(155))
	require.Equal(t, 193, InchesToCm(76))
}

func TestParseMoney(t *testing.T) {
	v, err := ParseMoney("$1,250,000.00")
	require.NoError(t, err)
	require.Equal(t, 1250000.0, v)

	v, err = ParseMoney("reported 6.2 million gate")
	require.NoError(t, err)
	require.Equal(t, 6.2e6, v)

	v, err = ParseMoney("about 1.1 billion total")
	require.NoError(t, err)
	require.Equal(t, 1.1e9, v)

	_, err = ParseMoney("undisclosed")
	require.Error(t, err)
}

func TestParseAttendance(t *testing.T) {
	n, err := ParseAttendance("20,427[1]")
	require.NoError(t, err)
	require.Equal(t, 20427, n)

	_, err = ParseAttendance("N/A")
	require.Error(t, err)
}

func TestMMSSToSeconds(t *testing.T) {
	n, err := MMSSToSeconds("4:15")
	require.NoError(t, err)
	require.Equal(t, 255, n)

	for _, in := range []string{"415", "4:75", "x:15"} {
		_, err := MMSSToSeconds(in)
		require.Error(t, err, in)
	}
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "JonJones", CleanText("Jon­Jones"))
	require.Equal(t, "Volkanovski", CleanText("Volka&shy;novski"))
	require.Equal(t, "Alexander Volkanovski", CleanText("  Alexander  Volkanovski \n"))
	require.Equal(t, "a b", CleanText("a\t\n b"))
}

func TestFirstInt(t *testing.T) {
	n, ok := FirstInt("#14 (up 2)")
	require.True(t, ok)
	require.Equal(t, 14, n)

	_, ok = FirstInt("C")
	require.False(t, ok)
}
