package dto

// TriggerSyncRequest is the body of a manual sync trigger.
type TriggerSyncRequest struct {
	// Full requests a bounded historical window rather than an
	// incremental one.
	Full bool `json:"full"`
	// LookbackDays overrides the historical window depth. Only honored
	// when Full is true.
	LookbackDays int `json:"lookback_days" binding:"omitempty,min=1,max=365"`
	// Resume permits continuing an interrupted run from its checkpoint.
	Resume bool `json:"resume"`
}

// TriggerSyncResponse reports the terminal outcome of a sync run.
type TriggerSyncResponse struct {
	Synced  int    `json:"synced"`
	Failed  int    `json:"failed"`
	Pages   int    `json:"pages"`
	Message string `json:"message,omitempty"`
}

// MarkScannedRequest identifies an order by the tracking number read off
// the shipping label.
type MarkScannedRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required"`
}
