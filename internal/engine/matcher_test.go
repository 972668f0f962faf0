package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexdesk/cortexdesk/internal/domain"
)

func catalog(names ...string) []domain.Category {
	cats := make([]domain.Category, 0, len(names))
	for i, name := range names {
		cats = append(cats, domain.Category{ID: string(rune('a' + i)), Name: name})
	}
	return cats
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"lowercase and strip punctuation", "No Internet, router's lights OFF!", []string{"internet", "router", "lights", "off"}},
		{"drops short tokens", "my tv is ok - net is down", []string{"net", "down"}},
		{"empty input", "   ", nil},
		{"digits kept", "error 500 on page2", []string{"error", "500", "page2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchCategoryExactBeatsZero(t *testing.T) {
	cats := catalog("No Internet", "Billing / Account")

	got := MatchCategory("No internet at home, router lights are off", cats)

	require.NotNil(t, got)
	assert.Equal(t, "No Internet", got.Name)
}

func TestMatchCategoryNoConfidentMatch(t *testing.T) {
	cats := catalog("Hardware Failure", "Change Request")

	assert.Nil(t, MatchCategory("everything fine thanks", cats))
	assert.Nil(t, MatchCategory("", cats))
	assert.Nil(t, MatchCategory("ab", cats))
	assert.Nil(t, MatchCategory("hardware broke again", nil))
}

func TestMatchCategoryTieGoesToFirst(t *testing.T) {
	cats := catalog("Slow Internet Speed", "Internet Slowness")

	got := MatchCategory("internet", cats)

	require.NotNil(t, got)
	assert.Equal(t, "Slow Internet Speed", got.Name)
}

// Exact hits also collect the substring bonus, and one input token
// earns +0.5 from every related pool token. The heuristic keeps this
// stacking; silently removing it would reshuffle categorization.
func TestMatchCategoryPartialStacking(t *testing.T) {
	cats := []domain.Category{
		{ID: "1", Name: "Router Issue", Description: "router routers routing"},
		{ID: "2", Name: "Billing"},
	}

	got := MatchCategory("router keeps rebooting", cats)

	require.NotNil(t, got)
	assert.Equal(t, "Router Issue", got.Name)
}

func TestMatchCategoryPluralPartialMatch(t *testing.T) {
	cats := catalog("Router / ONT Issue")

	// neither "routers" nor "issues" matches the pool exactly, but each
	// earns the substring bonus, so partial credit alone clears the
	// threshold
	got := MatchCategory("both routers and modems have issues tonight", cats)

	require.NotNil(t, got)
	assert.Equal(t, "Router / ONT Issue", got.Name)
}

func TestMatchCategoryUsesDescriptionPool(t *testing.T) {
	cats := []domain.Category{
		{ID: "1", Name: "Authentication Issue", Description: "Users unable to login or authenticate."},
		{ID: "2", Name: "Network Outage", Description: "Complete loss of network connectivity or service down."},
	}

	got := MatchCategory("cannot login to the portal", cats)

	require.NotNil(t, got)
	assert.Equal(t, "Authentication Issue", got.Name)
}
