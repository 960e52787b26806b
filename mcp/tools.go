package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/thewisemo/al-eairy-ota/internal/models"
	"github.com/thewisemo/al-eairy-ota/internal/query"
	"github.com/thewisemo/al-eairy-ota/internal/store"
)

// SnapshotReader yields the latest run snapshot.
type SnapshotReader interface {
	ReadLatest() (*models.RunSnapshot, error)
}

// HistoryReader answers brand price history from the Postgres mirror.
type HistoryReader interface {
	BrandHistory(ctx context.Context, city string, since time.Time) ([]store.BrandPoint, error)
}

// Deps are the read-only data sources behind the tools. History may be nil, in
// which case brand_history is not offered.
type Deps struct {
	Snapshots SnapshotReader
	Expander  *query.Expander
	History   HistoryReader
	Now       func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Expander == nil {
		d.Expander = query.NewExpander(query.DefaultTable(), query.DefaultOptions())
	}
	return d
}

type tools struct{ Deps }

func registerTools(s *server.MCPServer, d Deps) {
	t := &tools{d.withDefaults()}

	s.AddTool(mcp.NewTool("list_cities",
		mcp.WithDescription("List the cities in the latest OTA price snapshot and whether the tracked brand appears in each"),
	), t.listCities)

	s.AddTool(mcp.NewTool("city_ranking",
		mcp.WithDescription("Ranked hotel listings for one city from the latest snapshot, cheapest first"),
		mcp.WithString("city",
			mcp.Required(),
			mcp.Description("City name, e.g. Riyadh"),
		),
		mcp.WithString("provider",
			mcp.Description("Only this provider (Booking, Agoda or Expedia)"),
		),
	), t.cityRanking)

	s.AddTool(mcp.NewTool("expand_query",
		mcp.WithDescription("Show the search queries tried for a city today, in order"),
		mcp.WithString("city",
			mcp.Required(),
			mcp.Description("City name in English or Arabic"),
		),
	), t.expandQuery)

	if d.History != nil {
		s.AddTool(mcp.NewTool("brand_history",
			mcp.WithDescription("Daily tracked-brand price per provider for a city"),
			mcp.WithString("city",
				mcp.Required(),
				mcp.Description("City name"),
			),
			mcp.WithNumber("days",
				mcp.Description("Look-back window in days (default: 30)"),
			),
		), t.brandHistory)
	}
}

type cityEntry struct {
	City      string   `json:"city"`
	HasBrand  bool     `json:"hasBrand"`
	Providers []string `json:"providers"`
}

func (t *tools) listCities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, errResult := t.latest()
	if errResult != nil {
		return errResult, nil
	}
	out := struct {
		CheckIn string      `json:"checkIn"`
		Cities  []cityEntry `json:"cities"`
	}{CheckIn: snap.CheckIn}
	for _, c := range snap.Cities {
		out.Cities = append(out.Cities, cityEntry{City: c.City, HasBrand: c.HasBrand(), Providers: c.Providers.Names()})
	}
	return jsonResult(out)
}

func (t *tools) cityRanking(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	city := request.GetString("city", "")
	if city == "" {
		return mcp.NewToolResultError("city is required"), nil
	}
	provider := request.GetString("provider", "")

	snap, errResult := t.latest()
	if errResult != nil {
		return errResult, nil
	}
	res, ok := snap.City(city)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("city %q not in snapshot for %s", city, snap.CheckIn)), nil
	}

	type providerView struct {
		Provider string                  `json:"provider"`
		Listings []models.Listing        `json:"listings"`
		Summary  *models.ProviderSummary `json:"summary,omitempty"`
		Note     string                  `json:"note,omitempty"`
	}
	var views []providerView
	for _, pr := range res.Providers {
		if provider != "" && !equalFold(pr.Provider, provider) {
			continue
		}
		v := providerView{Provider: pr.Provider, Listings: pr.Listings, Note: snap.Note(res.City, pr.Provider)}
		if v.Listings == nil {
			v.Listings = []models.Listing{}
		}
		if s, ok := res.Summary[pr.Provider]; ok {
			v.Summary = &s
		}
		views = append(views, v)
	}
	if provider != "" && len(views) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("provider %q not in snapshot", provider)), nil
	}
	return jsonResult(struct {
		City      string         `json:"city"`
		CheckIn   string         `json:"checkIn"`
		Providers []providerView `json:"providers"`
	}{res.City, snap.CheckIn, views})
}

func (t *tools) expandQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	city := request.GetString("city", "")
	if city == "" {
		return mcp.NewToolResultError("city is required"), nil
	}
	return jsonResult(struct {
		City    string   `json:"city"`
		Queries []string `json:"queries"`
	}{city, t.Expander.Expand(city, t.Now())})
}

func (t *tools) brandHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	city := request.GetString("city", "")
	if city == "" {
		return mcp.NewToolResultError("city is required"), nil
	}
	days := request.GetInt("days", 30)
	if days <= 0 {
		days = 30
	}
	points, err := t.History.BrandHistory(ctx, city, t.Now().AddDate(0, 0, -days))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("history error: %v", err)), nil
	}
	if points == nil {
		points = []store.BrandPoint{}
	}
	return jsonResult(points)
}

func (t *tools) latest() (*models.RunSnapshot, *mcp.CallToolResult) {
	snap, err := t.Snapshots.ReadLatest()
	if errors.Is(err, store.ErrNoSnapshot) {
		return nil, mcp.NewToolResultError("no snapshot yet; run `otascan run` first")
	}
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("read snapshot: %v", err))
	}
	return snap, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func equalFold(a, b string) bool {
	return models.NormalizeName(a) == models.NormalizeName(b)
}
