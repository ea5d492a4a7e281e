package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/callsight/callsight/internal/domain"
)

// CRMClient talks to a HubSpot-style CRM REST API. The bearer token is
// carried by an oauth2 static token source on the underlying HTTP client.
type CRMClient struct {
	baseURL string
	client  *http.Client
}

// NewCRMClient creates a CRM client for the given API base URL and token.
func NewCRMClient(baseURL, token string) *CRMClient {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := oauth2.NewClient(context.Background(), src)
	client.Timeout = 30 * time.Second
	return &CRMClient{baseURL: baseURL, client: client}
}

// do sends a JSON request and returns the status code and decoded body.
func (c *CRMClient) do(ctx context.Context, method, path string, body any) (int, map[string]any, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	var decoded map[string]any
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &decoded); err != nil {
			// Non-JSON error bodies still surface through the message.
			decoded = map[string]any{"raw": string(respBody)}
		}
	}
	return resp.StatusCode, decoded, nil
}

func results(body map[string]any) []any {
	items, _ := body["results"].([]any)
	return items
}

// ContactByEmailTool retrieves a contact from the CRM by email address.
// The search endpoint is used because the CRM does not support direct lookup
// by email in the path.
type ContactByEmailTool struct {
	CRM *CRMClient
}

func (t *ContactByEmailTool) Name() string { return domain.ToolGetContactByEmail }

func (t *ContactByEmailTool) Description() string {
	return "Retrieve contact information from the CRM by email address. Use when the customer provides or implies their email or identity."
}

func (t *ContactByEmailTool) InputSchema() string {
	return `{"type":"object","properties":{"email":{"type":"string","description":"The email address of the contact to retrieve"}},"required":["email"]}`
}

func (t *ContactByEmailTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return Failure("invalid arguments: %v", err), nil
	}

	status, body, err := t.CRM.do(ctx, "POST", "/crm/v3/objects/contacts/search", map[string]any{
		"filterGroups": []any{map[string]any{
			"filters": []any{map[string]any{
				"propertyName": "email",
				"operator":     "EQ",
				"value":        args.Email,
			}},
		}},
		"properties": []string{"email", "firstname", "lastname", "company", "phone"},
		"limit":      1,
	})
	if err != nil {
		return Failure("Error: %v", err), nil
	}
	if status != http.StatusOK {
		return Failure("Error retrieving contact: %d", status), nil
	}

	items := results(body)
	if len(items) == 0 {
		return Failure("No contact found for email: %s", args.Email), nil
	}
	return Success(items[0]), nil
}

// CreateTicketTool creates a support ticket in the CRM.
type CreateTicketTool struct {
	CRM *CRMClient
}

func (t *CreateTicketTool) Name() string { return domain.ToolCreateSupportTicket }

func (t *CreateTicketTool) Description() string {
	return "Create a support ticket in the CRM. Use when the customer reports a product issue, service failure, or recurring problem."
}

func (t *CreateTicketTool) InputSchema() string {
	return `{"type":"object","properties":{"subject":{"type":"string","description":"Ticket subject line"},"description":{"type":"string","description":"Detailed description of the issue"},"priority":{"type":"string","enum":["LOW","MEDIUM","HIGH"],"description":"Ticket priority"}},"required":["subject","description","priority"]}`
}

func (t *CreateTicketTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Subject     string `json:"subject"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return Failure("invalid arguments: %v", err), nil
	}

	status, body, err := t.CRM.do(ctx, "POST", "/crm/v3/objects/tickets", map[string]any{
		"properties": map[string]any{
			"hs_ticket_priority": args.Priority,
			"subject":            args.Subject,
			"content":            args.Description,
			"hs_pipeline_stage":  "1", // "New" stage
		},
	})
	if err != nil {
		return Failure("Error: %v", err), nil
	}
	if status != http.StatusCreated {
		return Failure("Error creating ticket: %d", status), nil
	}
	return Success(body), nil
}

// UpdateContactPropertyTool updates a single property of a CRM contact.
type UpdateContactPropertyTool struct {
	CRM *CRMClient
}

func (t *UpdateContactPropertyTool) Name() string { return domain.ToolUpdateContactProperty }

func (t *UpdateContactPropertyTool) Description() string {
	return "Update a specific property of a contact in the CRM. Use when the customer provides new or updated personal info."
}

func (t *UpdateContactPropertyTool) InputSchema() string {
	return `{"type":"object","properties":{"contact_id":{"type":"string","description":"CRM contact ID"},"property_name":{"type":"string","description":"Name of the property to update"},"property_value":{"type":"string","description":"New value for the property"}},"required":["contact_id","property_name","property_value"]}`
}

func (t *UpdateContactPropertyTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		ContactID     string `json:"contact_id"`
		PropertyName  string `json:"property_name"`
		PropertyValue string `json:"property_value"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return Failure("invalid arguments: %v", err), nil
	}

	status, _, err := t.CRM.do(ctx, "PATCH", "/crm/v3/objects/contacts/"+args.ContactID, map[string]any{
		"properties": map[string]any{args.PropertyName: args.PropertyValue},
	})
	if err != nil {
		return Failure("Error: %v", err), nil
	}
	if status != http.StatusOK {
		return Failure("Error updating contact: %d", status), nil
	}
	return Success(fmt.Sprintf("Successfully updated %s to %s", args.PropertyName, args.PropertyValue)), nil
}

// ContactDealsTool retrieves deal summaries associated with a contact.
type ContactDealsTool struct {
	CRM *CRMClient
}

func (t *ContactDealsTool) Name() string { return domain.ToolGetContactDeals }

func (t *ContactDealsTool) Description() string {
	return "Retrieve all deals associated with a contact. Use when the customer asks about pricing, deals, trials, or renewals."
}

func (t *ContactDealsTool) InputSchema() string {
	return `{"type":"object","properties":{"contact_id":{"type":"string","description":"CRM contact ID"}},"required":["contact_id"]}`
}

func (t *ContactDealsTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		ContactID string `json:"contact_id"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return Failure("invalid arguments: %v", err), nil
	}

	status, body, err := t.CRM.do(ctx, "GET", "/crm/v3/objects/contacts/"+args.ContactID+"/associations/deals", nil)
	if err != nil {
		return Failure("Error: %v", err), nil
	}
	if status != http.StatusOK {
		return Failure("Error retrieving deals: %d", status), nil
	}

	var summaries []any
	for _, item := range results(body) {
		deal, _ := item.(map[string]any)
		dealID, _ := deal["id"].(string)
		if dealID == "" {
			continue
		}

		detailStatus, detail, err := t.CRM.do(ctx, "GET",
			"/crm/v3/objects/deals/"+dealID+"?properties=dealname,amount,dealstage,closedate", nil)
		if err != nil || detailStatus != http.StatusOK {
			summaries = append(summaries, map[string]any{
				"id":    dealID,
				"error": "Could not fetch details: " + strconv.Itoa(detailStatus),
			})
			continue
		}

		props, _ := detail["properties"].(map[string]any)
		summaries = append(summaries, map[string]any{
			"id":         dealID,
			"name":       props["dealname"],
			"amount":     props["amount"],
			"stage":      props["dealstage"],
			"close_date": props["closedate"],
		})
	}
	return Success(summaries), nil
}

// SearchContactsByCompanyTool searches CRM contacts by company name.
type SearchContactsByCompanyTool struct {
	CRM *CRMClient
}

func (t *SearchContactsByCompanyTool) Name() string { return domain.ToolSearchContactsByCompany }

func (t *SearchContactsByCompanyTool) Description() string {
	return "Search for contacts by company name in the CRM. Use when the customer gives a company name but not their email."
}

func (t *SearchContactsByCompanyTool) InputSchema() string {
	return `{"type":"object","properties":{"company_name":{"type":"string","description":"Name of the company to search for"}},"required":["company_name"]}`
}

func (t *SearchContactsByCompanyTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		CompanyName string `json:"company_name"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return Failure("invalid arguments: %v", err), nil
	}

	status, body, err := t.CRM.do(ctx, "POST", "/crm/v3/objects/contacts/search", map[string]any{
		"filterGroups": []any{map[string]any{
			"filters": []any{map[string]any{
				"propertyName": "company",
				"operator":     "CONTAINS_TOKEN",
				"value":        args.CompanyName,
			}},
		}},
		"properties": []string{"email", "firstname", "lastname", "company", "phone"},
		"limit":      10,
	})
	if err != nil {
		return Failure("Error: %v", err), nil
	}
	if status != http.StatusOK {
		return Failure("Error searching contacts: %d", status), nil
	}
	return Success(body), nil
}

// ContactTimelineTool retrieves the call activity timeline for a contact.
type ContactTimelineTool struct {
	CRM *CRMClient
}

func (t *ContactTimelineTool) Name() string { return domain.ToolGetContactTimeline }

func (t *ContactTimelineTool) Description() string {
	return "Retrieve the call activity timeline for a contact. Use when prior interactions are relevant to the current issue."
}

func (t *ContactTimelineTool) InputSchema() string {
	return `{"type":"object","properties":{"contact_id":{"type":"string","description":"CRM contact ID"}},"required":["contact_id"]}`
}

func (t *ContactTimelineTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		ContactID string `json:"contact_id"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return Failure("invalid arguments: %v", err), nil
	}

	status, body, err := t.CRM.do(ctx, "GET", "/crm/v3/objects/contacts/"+args.ContactID+"/associations/calls", nil)
	if err != nil {
		return Failure("Error: %v", err), nil
	}
	if status != http.StatusOK {
		return Failure("Error retrieving timeline: %d", status), nil
	}
	return Success(body), nil
}

// LogCallActivityTool records a customer service call as a CRM activity.
type LogCallActivityTool struct {
	CRM *CRMClient

	// Now supplies the activity timestamp; defaults to time.Now.
	Now func() time.Time
}

func (t *LogCallActivityTool) Name() string { return domain.ToolLogCallActivity }

func (t *LogCallActivityTool) Description() string {
	return "Log a customer service call as an activity in the CRM, associated with the contact."
}

func (t *LogCallActivityTool) InputSchema() string {
	return `{"type":"object","properties":{"contact_id":{"type":"string","description":"CRM contact ID"},"call_duration":{"type":"integer","description":"Duration of call in seconds"},"call_outcome":{"type":"string","description":"Outcome of the call (COMPLETED, NO_ANSWER, BUSY, etc.)"},"notes":{"type":"string","description":"Call notes and summary"}},"required":["contact_id","call_duration","call_outcome","notes"]}`
}

func (t *LogCallActivityTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		ContactID    string `json:"contact_id"`
		CallDuration int    `json:"call_duration"`
		CallOutcome  string `json:"call_outcome"`
		Notes        string `json:"notes"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return Failure("invalid arguments: %v", err), nil
	}

	now := time.Now
	if t.Now != nil {
		now = t.Now
	}

	status, body, err := t.CRM.do(ctx, "POST", "/crm/v3/objects/calls", map[string]any{
		"properties": map[string]any{
			"hs_call_duration":  strconv.Itoa(args.CallDuration),
			"hs_call_status":    args.CallOutcome,
			"hs_call_body":      args.Notes,
			"hs_call_direction": "INBOUND",
			"hs_timestamp":      strconv.FormatInt(now().UnixMilli(), 10),
		},
		"associations": []any{map[string]any{
			"to": map[string]any{"id": args.ContactID},
			"types": []any{map[string]any{
				"associationCategory": "HUBSPOT_DEFINED",
				"associationTypeId":   194,
			}},
		}},
	})
	if err != nil {
		return Failure("Error: %v", err), nil
	}
	if status != http.StatusCreated {
		return Failure("Error logging call: %d", status), nil
	}
	return Success(body), nil
}
