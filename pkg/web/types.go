package web

// FailoverRequest names the nodes a rescue pass should process.
type FailoverRequest struct {
	FailedNodes []string `json:"failed_nodes" validate:"required,min=1,dive,required"`
}
