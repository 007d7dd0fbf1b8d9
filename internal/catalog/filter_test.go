package catalog

import (
	"testing"

	"github.com/korg1OOO/baratosociais/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestAcceptable(t *testing.T) {
	tests := []struct {
		name  string
		svc   model.Service
		valid bool
	}{
		{"normal service", model.Service{Name: "Curtidas Instagram", Price: dec("2.00")}, true},
		{"zero price", model.Service{Name: "Curtidas Instagram", Price: dec("0")}, false},
		{"negative price", model.Service{Name: "Curtidas Instagram", Price: dec("-1")}, false},
		{"price at ceiling", model.Service{Name: "Curtidas Instagram", Price: dec("1000")}, false},
		{"price just below ceiling", model.Service{Name: "Curtidas Instagram", Price: dec("999.99")}, true},
		{"five rune name", model.Service{Name: "Views", Price: dec("1")}, false},
		{"six rune name", model.Service{Name: "Vídeos", Price: dec("1")}, true},
		{"internal marker", model.Service{Name: "Teste SERVIÇO INTERNO", Price: dec("1")}, false},
		{"internal marker lower case", model.Service{Name: "teste serviço interno", Price: dec("1")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, Acceptable(tt.svc))
		})
	}
}

func TestFilter_KeepsOrder(t *testing.T) {
	in := []model.Service{
		{ID: "a", Name: "Curtidas Rápidas", Price: dec("1")},
		{ID: "b", Name: "Curto", Price: dec("1")},
		{ID: "c", Name: "Seguidores Reais", Price: dec("5")},
	}

	out := Filter(in)

	assert.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "c", out[1].ID)
}

func TestQuery_Apply(t *testing.T) {
	services := []model.Service{
		{ID: "1", Name: "Curtidas Instagram", Description: "rápido", Category: CategoryLikes, Platform: "instagram"},
		{ID: "2", Name: "Seguidores TikTok", Description: "perfil brasileiro", Category: CategoryFollowers, Platform: "tiktok"},
		{ID: "3", Name: "Visualizações TikTok", Description: "vídeos", Category: CategoryViews, Platform: "tiktok"},
	}

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"empty query", Query{}, []string{"1", "2", "3"}},
		{"all facets", Query{Category: "all", Platform: "all"}, []string{"1", "2", "3"}},
		{"platform", Query{Platform: "tiktok"}, []string{"2", "3"}},
		{"category and platform", Query{Category: CategoryViews, Platform: "tiktok"}, []string{"3"}},
		{"search name case-insensitive", Query{Search: "CURTIDAS"}, []string{"1"}},
		{"search description", Query{Search: "brasileiro"}, []string{"2"}},
		{"no match", Query{Search: "kwai"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(services, tt.query)

			ids := make([]string, 0, len(got))
			for _, s := range got {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestRuleTable_Resolve(t *testing.T) {
	table := RuleTable{
		{Match: containsAny("alpha"), Result: "a"},
		{Match: containsAny("beta", "alpha"), Result: "b"},
	}

	assert.Equal(t, "a", table.Resolve("ALPHA beta", "x"))
	assert.Equal(t, "b", table.Resolve("Beta", "x"))
	assert.Equal(t, "x", table.Resolve("gamma", "x"))
}
