package tools

import "github.com/callsight/callsight/internal/config"

// NewToolkit builds the full tool registry from config: CRM operations,
// email suggestion, and manuals search.
func NewToolkit(cfg config.Config) *Registry {
	crm := NewCRMClient(cfg.CRM.BaseURL, cfg.CRM.Token)
	manuals := NewManualsClient(cfg.Manuals.BaseURL, cfg.Manuals.APIKey)

	reg := NewRegistry()
	reg.Register(&ContactByEmailTool{CRM: crm})
	reg.Register(&CreateTicketTool{CRM: crm})
	reg.Register(&UpdateContactPropertyTool{CRM: crm})
	reg.Register(&ContactDealsTool{CRM: crm})
	reg.Register(&SearchContactsByCompanyTool{CRM: crm})
	reg.Register(&ContactTimelineTool{CRM: crm})
	reg.Register(&LogCallActivityTool{CRM: crm})
	reg.Register(&SendEmailTool{})
	reg.Register(&SearchManualsTool{Manuals: manuals})
	return reg
}
