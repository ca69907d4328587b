package models

// BatchAnalyzeResponse is returned when a batch task is accepted
type BatchAnalyzeResponse struct {
	BatchID    string `json:"batch_id"`
	TotalCount int    `json:"total_count"`
	Status     string `json:"status"`
}

// BatchProject is one URL inside a batch task
type BatchProject struct {
	ID           string `json:"id"`
	SourceURL    string `json:"source_url"`
	Status       string `json:"status"`
	Title        string `json:"title,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// BatchTaskStatus is the progress of a batch task
type BatchTaskStatus struct {
	BatchID      string         `json:"batch_id"`
	TotalCount   int            `json:"total_count"`
	SuccessCount int            `json:"success_count"`
	FailedCount  int            `json:"failed_count"`
	Status       string         `json:"status"`
	Projects     []BatchProject `json:"projects,omitempty"`
}

// Done reports whether every URL in the batch has been processed
func (b BatchTaskStatus) Done() bool {
	switch b.Status {
	case "completed", "failed", "partial_failed":
		return true
	}
	return b.TotalCount > 0 && b.SuccessCount+b.FailedCount >= b.TotalCount
}

// BatchList is one page of batch tasks
type BatchList struct {
	List     []BatchTaskStatus `json:"list"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}
