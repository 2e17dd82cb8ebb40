package fightru

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/model"
)

func docFromString(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func testScraper() *Scraper {
	return &Scraper{log: zap.NewNop()}
}

const rankingsFixture = `<html><body>
<div class="org-single">
<div class="weight-name">Тяжелый вес</div>
<div class="first-fighter">
<a href="/fighters/tom-aspinall"><div class="fighter-name">Том Аспиналл</div></a>
</div>
<div class="next-fighter">
<div class="fighter-number">1</div>
<a href="https://fight.ru/fighters/ciryl-gane"><div class="fighter-name">Сирил Ган</div></a>
<div class="move up">2</div>
</div>
<div class="next-fighter">
<div class="fighter-number">2</div>
<a href="/fighters/alexander-volkov"><div class="fighter-name">Александр Волков</div></a>
<div class="move down">1</div>
</div>
</div>
<div class="org-single">
<div class="weight-name">Все</div>
<div class="next-fighter"><div class="fighter-number">1</div><div class="fighter-name">игнорируется</div></div>
</div>
</body></html>`

func TestParseRankings(t *testing.T) {
	tables, err := testScraper().ParseRankings(docFromString(t, rankingsFixture))
	require.NoError(t, err)
	require.Len(t, tables, 1)

	hw := tables[0]
	require.Equal(t, "Тяжелый вес", hw.WeightClass)
	require.Len(t, hw.Entries, 3)

	champ := hw.Entries[0]
	require.Equal(t, "Том Аспиналл", champ.Name)
	require.True(t, champ.Champion)
	require.Equal(t, 0, champ.Rank)
	require.Equal(t, "https://fight.ru/fighters/tom-aspinall", champ.ProfileURL)

	require.Equal(t, "Сирил Ган", hw.Entries[1].Name)
	require.Equal(t, 1, hw.Entries[1].Rank)
	require.Equal(t, 2, hw.Entries[1].RankChange)
	require.Equal(t, "https://fight.ru/fighters/ciryl-gane", hw.Entries[1].ProfileURL)

	require.Equal(t, 2, hw.Entries[2].Rank)
	require.Equal(t, -1, hw.Entries[2].RankChange)
}

func TestParseRankingsEmptyPage(t *testing.T) {
	_, err := testScraper().ParseRankings(docFromString(t, "<html><body></body></html>"))
	require.Error(t, err)
}

func TestTranslateWeightClass(t *testing.T) {
	require.Equal(t, "Heavyweight", TranslateWeightClass("Тяжелый вес"))
	require.Equal(t, "Women's Bantamweight", TranslateWeightClass("Женский легчайший вес"))
	require.Equal(t, "Pound for Pound", TranslateWeightClass("(P4P)"))
	require.Equal(t, "Неизвестный вес", TranslateWeightClass("Неизвестный вес"))
}

func TestDetectGenderAndP4P(t *testing.T) {
	require.Equal(t, model.GenderFemale, DetectGender("Женский наилегчайший"))
	require.Equal(t, model.GenderFemale, DetectGender("(P4P) (жен)"))
	require.Equal(t, model.GenderMale, DetectGender("Тяжелый вес"))

	require.True(t, IsP4P("(P4P)"))
	require.False(t, IsP4P("Средний вес"))
}

const profileFixture = `<html><body>
<meta property="og:image" content="https://fight.ru/img/islam.jpg"/>
<h1 class="fighter-name">Ислам Махачев</h1>
<div class="fighter-latin-name">Islam Makhachev</div>
<div class="fighter-country"><span class="fighter-country-flag"><img src="/flags/ru.png"/></span><span class="fighter-country-name">Россия</span></div>
<div class="fight-score">27–1–0</div>
<ul>
<li><span class="text">Рост / Вес</span><span class="sub">178 см / 77 кг</span></li>
<li><span class="text">Размах рук</span><span class="sub">179 см</span></li>
<li><span class="text">Возраст</span><span class="sub">34 года</span></li>
<li><span class="text">Никнейм</span><span class="sub">The Eagle Jr.</span></li>
</ul>
</body></html>`

func TestParseProfile(t *testing.T) {
	p := testScraper().ParseProfile(docFromString(t, profileFixture))
	require.Equal(t, "Ислам Махачев", p.NameRU)
	require.Equal(t, "Islam Makhachev", p.NameEN)
	require.Equal(t, "Россия", p.Country)
	require.Equal(t, "/flags/ru.png", p.CountryFlag)
	require.Equal(t, "https://fight.ru/img/islam.jpg", p.ImageURL)
	require.Equal(t, "27–1–0", p.Record)
	require.NotNil(t, p.HeightCm)
	require.Equal(t, 178, *p.HeightCm)
	require.NotNil(t, p.WeightKg)
	require.Equal(t, 77, *p.WeightKg)
	require.NotNil(t, p.ReachCm)
	require.Equal(t, 179, *p.ReachCm)
	require.NotNil(t, p.Age)
	require.Equal(t, 34, *p.Age)
	require.Equal(t, "The Eagle Jr.", p.Nickname)
}

func TestParseProfileFallbackName(t *testing.T) {
	p := testScraper().ParseProfile(docFromString(t, `<html><body><h2>Боец Неизвестный</h2><span class="eng-name">Unknown Fighter</span></body></html>`))
	require.Equal(t, "Боец Неизвестный", p.NameRU)
	require.Equal(t, "Unknown Fighter", p.NameEN)
}
