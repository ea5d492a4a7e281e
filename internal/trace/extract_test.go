package trace

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/callsight/callsight/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(status, message string) string {
	data, _ := json.Marshal(map[string]any{"status": status, "message": message})
	return string(data)
}

func TestExtractMatchedResults(t *testing.T) {
	var entries []Entry
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("call-%d", i)
		entries = append(entries,
			Assistant(Request{ID: id, Name: "get_contact_by_email", Args: `{"email":"a@x.com"}`}),
			ToolResult(id, result("success", "found")),
		)
	}

	records, err := Extract(entries)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, "get_contact_by_email", r.Name)
		assert.Equal(t, `{"email":"a@x.com"}`, r.Input)
		assert.Equal(t, domain.ToolStatusSuccess, r.Status)
		assert.Equal(t, `"found"`, r.Output)
	}
}

func TestExtractFailedStatus(t *testing.T) {
	entries := []Entry{
		Assistant(Request{ID: "c1", Name: "create_support_ticket", Args: `{"subject":"x"}`}),
		ToolResult("c1", result("failed", "ticket API returned 503")),
	}

	records, err := Extract(entries)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.ToolStatusFailed, records[0].Status)
	assert.Equal(t, `"ticket API returned 503"`, records[0].Output)
}

func TestExtractMismatchedIDFallsBack(t *testing.T) {
	entries := []Entry{
		Assistant(Request{ID: "c1", Name: "get_contact_deals", Args: `{"contact_id":"42"}`}),
		ToolResult("wrong-id", result("failed", "nope")),
	}

	records, err := Extract(entries)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.ToolStatusSuccess, records[0].Status)
	assert.Empty(t, records[0].Output)
}

func TestExtractMissingResultFallsBack(t *testing.T) {
	entries := []Entry{
		Assistant(Request{ID: "c1", Name: "send_email", Args: `{"subject":"hi"}`}),
	}

	records, err := Extract(entries)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.ToolStatusSuccess, records[0].Status)
	assert.Empty(t, records[0].Output)
}

func TestExtractManualsSearchUsesSources(t *testing.T) {
	content, _ := json.Marshal(map[string]any{
		"status":  "success",
		"message": "1. Source: refund-policy\nContent: ...",
		"sources": []string{"refund-policy", "billing-faq"},
	})
	entries := []Entry{
		Assistant(Request{ID: "c1", Name: domain.ToolSearchCompanyManuals, Args: `{"query":"refund policy"}`}),
		ToolResult("c1", string(content)),
	}

	records, err := Extract(entries)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, `["refund-policy","billing-faq"]`, records[0].Output)
	assert.NotContains(t, records[0].Output, "Content:")
}

func TestExtractManualsSearchFailedUsesMessage(t *testing.T) {
	entries := []Entry{
		Assistant(Request{ID: "c1", Name: domain.ToolSearchCompanyManuals, Args: `{"query":"x"}`}),
		ToolResult("c1", result("failed", "index unavailable")),
	}

	records, err := Extract(entries)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.ToolStatusFailed, records[0].Status)
	assert.Equal(t, `"index unavailable"`, records[0].Output)
}

func TestExtractRequestOrderPreserved(t *testing.T) {
	entries := []Entry{
		Assistant(
			Request{ID: "c1", Name: "get_contact_by_email", Args: `{}`},
			Request{ID: "c2", Name: "create_support_ticket", Args: `{}`},
		),
		ToolResult("c1", result("success", "ok")),
		Assistant(Request{ID: "c3", Name: "send_email", Args: `{}`}),
		ToolResult("c3", result("success", "queued")),
	}

	records, err := Extract(entries)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "get_contact_by_email", records[0].Name)
	assert.Equal(t, "create_support_ticket", records[1].Name)
	assert.Equal(t, "send_email", records[2].Name)

	// Only the entry immediately after the assistant turn is consulted, so
	// the second request of the first turn gets the permissive default.
	assert.Equal(t, `"ok"`, records[0].Output)
	assert.Empty(t, records[1].Output)
	assert.Equal(t, domain.ToolStatusSuccess, records[1].Status)
}

func TestExtractNoDuplicatePerRequest(t *testing.T) {
	entries := []Entry{
		Assistant(Request{ID: "c1", Name: "get_contact_by_email", Args: `{"email":"a@x.com"}`}),
		ToolResult("c1", result("success", "ok")),
	}

	records, err := Extract(entries)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestExtractEmptyTrace(t *testing.T) {
	records, err := Extract(nil)
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = Extract([]Entry{Assistant(), ToolResult("c1", result("success", "orphan"))})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExtractInvalidResultContent(t *testing.T) {
	entries := []Entry{
		Assistant(Request{ID: "c1", Name: "get_contact_by_email", Args: `{}`}),
		ToolResult("c1", "not json at all"),
	}

	_, err := Extract(entries)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "c1", perr.ToolCallID)
}
