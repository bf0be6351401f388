package mcp

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/liftsheet/internal/analyze"
)

// SheetInfo summarises one sheet for the catalog resource.
type SheetInfo struct {
	Name     string   `json:"name"`
	Rows     int      `json:"rows"`
	People   []string `json:"people"`
	FirstDay string   `json:"first_day,omitempty"`
	LastDay  string   `json:"last_day,omitempty"`
}

func summarise(name string, rows [][]string) SheetInfo {
	info := SheetInfo{Name: name, Rows: len(rows), People: []string{}}
	sets, _ := analyze.Sets(rows, nil)
	for _, s := range sets {
		if !slices.Contains(info.People, s.Person) {
			info.People = append(info.People, s.Person)
		}
		day := s.Day()
		if info.FirstDay == "" || day < info.FirstDay {
			info.FirstDay = day
		}
		if day > info.LastDay {
			info.LastDay = day
		}
	}
	slices.Sort(info.People)
	return info
}

func (h *handlers) sheetCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	names, err := h.ds.ListSheets(ctx)
	if err != nil {
		return nil, err
	}

	catalog := make([]SheetInfo, 0, len(names))
	for _, name := range names {
		rows, err := h.ds.ReadRows(ctx, name)
		if err != nil {
			h.log.Warn("sheet_catalog: read failed", "sheet", name, "error", err)
			continue
		}
		catalog = append(catalog, summarise(name, rows))
	}

	data, err := json.Marshal(catalog)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
