package domain

// Tool identifiers the reasoning service may invoke. These names appear in
// trace entries, tool call records, and the tool registry.
const (
	ToolGetContactByEmail       = "get_contact_by_email"
	ToolCreateSupportTicket     = "create_support_ticket"
	ToolUpdateContactProperty   = "update_contact_property"
	ToolGetContactDeals         = "get_contact_deals"
	ToolSearchContactsByCompany = "search_contacts_by_company"
	ToolGetContactTimeline      = "get_contact_timeline"
	ToolLogCallActivity         = "log_call_activity"
	ToolSendEmail               = "send_email"
	ToolSearchCompanyManuals    = "search_company_manuals"
)
