package db

import "time"

// Row is one record keyed by column name.
type Row map[string]any

// Target names a table and the columns that scope and filter it.
type Target struct {
	Table         string   `json:"table"`
	TenantColumn  string   `json:"tenant_column"`
	PrimaryKey    string   `json:"primary_key"`
	SearchColumns []string `json:"search_columns,omitempty"`
	StatusColumn  string   `json:"status_column,omitempty"`
}

// Scope is a Target bound to the tenant of the current request.
type Scope struct {
	Target
	Tenant string
}

// Pagination bounds applied by ListOptions.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListOptions filter and paginate a Select.
type ListOptions struct {
	Page     int
	PageSize int
	Search   string
	Status   string
}

func (o ListOptions) normalized() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 {
		o.PageSize = DefaultPageSize
	}
	if o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
	return o
}

// Page is one page of a Select.
type Page struct {
	Rows     []Row `json:"data"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int   `json:"total"`
}

// RunRecord is the stored summary of one pipeline run.
type RunRecord struct {
	ID           string        `json:"id"`
	BlueprintID  string        `json:"blueprint_id"`
	Policy       string        `json:"policy"`
	Success      bool          `json:"success"`
	Aborted      bool          `json:"aborted"`
	CheckpointID string        `json:"checkpoint_id,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	Layers       []LayerRecord `json:"layers,omitempty"`
}

// LayerRecord is the stored outcome of one pipeline phase.
type LayerRecord struct {
	Layer      float64 `json:"layer"`
	Name       string  `json:"name"`
	Success    bool    `json:"success"`
	DurationMS int64   `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
}
