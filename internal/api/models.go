package api

// MediaKind values reported by the server for MediaItem.Kind
const (
	KindImage = "image"
	KindVideo = "video"
)

// MediaItem is one gallery entry. IDs are unique within a result set and
// stable across pages; they are the sole deduplication key.
type MediaItem struct {
	ID       int            `json:"id"`
	Path     string         `json:"path"`
	Kind     string         `json:"type"`
	Width    int            `json:"width"`  // 0 when unknown (some videos)
	Height   int            `json:"height"` // 0 when unknown
	ModTime  float64        `json:"mod_time"`
	Metadata map[string]any `json:"exif,omitempty"`
}

// MediaPage is one page of gallery results.
type MediaPage struct {
	TotalItems int         `json:"total_items"`
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
	Items      []MediaItem `json:"items"`
}

// MediaQuery holds the gallery query parameters for a page fetch.
type MediaQuery struct {
	Sort     string
	Query    string
	GroupTag string // empty means all groups
	Page     int
}

// GroupInfo is a named bucket with a member count, used for filter chips.
type GroupInfo struct {
	Tag   string `json:"group_tag"`
	Count int    `json:"count"`
}

// ScanStatus reports the server's background indexing state.
type ScanStatus struct {
	Scanning bool
	Progress int
	Total    int
}

// scanStatusWire covers both contract revisions of the scan-status payload:
// {status:"scanning"|"complete"} and the later {scan_complete:bool} form.
type scanStatusWire struct {
	Status       string `json:"status"`
	ScanComplete *bool  `json:"scan_complete"`
	Progress     int    `json:"progress"`
	Total        int    `json:"total"`
}

func (w scanStatusWire) toStatus() *ScanStatus {
	s := &ScanStatus{Progress: w.Progress, Total: w.Total}
	if w.ScanComplete != nil {
		s.Scanning = !*w.ScanComplete
	} else {
		s.Scanning = w.Status == "scanning"
	}
	return s
}

// AppSettings is the open key-value settings document stored on the server.
type AppSettings map[string]any

// SettingsResponse is the payload of GET /settings.
type SettingsResponse struct {
	Settings   AppSettings `json:"settings"`
	LockedKeys []string    `json:"locked_keys"`
}

// CleanupResponse is the payload of POST /cache/cleanup.
type CleanupResponse struct {
	Message      string `json:"message"`
	DeletedFiles int    `json:"deleted_files"`
}

// DeleteResponse is the payload of POST /delete/{id}.
type DeleteResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
