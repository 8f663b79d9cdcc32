package handlers

// HandlerBundle aggregates every HTTP handler so route registration takes a
// single dependency.
type HandlerBundle struct {
	Provider    *ProviderHandler
	Admin       *AdminHandler
	Catalog     *CatalogHandler
	Order       *OrderHandler
	Dispute     *DisputeHandler
	Statement   *StatementHandler
	Webhook     *WebhookHandler
	Maintenance *MaintenanceHandler
}
