package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/gigfeed/internal/fetch"
	"github.com/jonathan/gigfeed/internal/types"
)

const boardPage = `<html><body>
	<div class="card">
		<h2 class="title">Go Developer</h2>
		<a class="apply" href="/jobs/1">Apply</a>
	</div>
	<div class="card">
		<h2 class="title">Backend Engineer</h2>
		<a class="apply" href="https://other.example.com/jobs/2">Apply</a>
	</div>
</body></html>`

func TestBoardProviderSearch(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(boardPage))
	}))
	defer server.Close()

	p := NewBoardProvider(BoardConfig{
		ProviderID: "board-example",
		Platform:   "example",
		SearchURL:  server.URL + "/search",
		Selectors: fetch.CardSelectors{
			Card: ".card",
			Fields: map[string]string{
				"title": ".title",
				"url":   ".apply",
			},
			Attrs: map[string]string{"url": "href"},
		},
	}, nil, false)

	jobs, err := p.Search(context.Background(), SearchRequest{
		Platform: "example",
		Plan:     types.QueryPlan{Keywords: []string{"golang", "backend"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "golang backend", gotQuery)
	require.Len(t, jobs, 2)

	assert.Equal(t, "example", jobs[0].Platform)
	assert.Equal(t, "board-example", jobs[0].Provider)
	assert.Equal(t, "Go Developer", jobs[0].Raw["title"])

	// Relative links resolve against the board host; absolute ones pass
	// through unchanged.
	assert.Equal(t, server.URL+"/jobs/1", jobs[0].Raw["url"])
	assert.Equal(t, "https://other.example.com/jobs/2", jobs[1].Raw["url"])
}

func TestBoardProviderBadSearchURL(t *testing.T) {
	p := NewBoardProvider(BoardConfig{
		ProviderID: "board-bad",
		Platform:   "example",
		SearchURL:  "://not-a-url",
	}, nil, false)

	_, err := p.Search(context.Background(), SearchRequest{
		Platform: "example",
		Plan:     types.QueryPlan{Keywords: []string{"golang"}},
	})
	require.Error(t, err)
}
