// Package web exposes the tracker node's HTTP surface: the instance report
// API, the peer rescue endpoint and the failover trigger.
package web

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/flowtrack-io/flowtrack/pkg/failover"
	"github.com/flowtrack-io/flowtrack/pkg/registry"
	"github.com/flowtrack-io/flowtrack/pkg/report"
	"github.com/flowtrack-io/flowtrack/pkg/reporter"
	"github.com/flowtrack-io/flowtrack/pkg/sharedstore"
)

type APIHandlers struct {
	logger          *slog.Logger
	registry        *registry.Registry
	reporter        *reporter.Reporter
	failoverHandler *failover.Handler
	validator       *validator.Validate
}

func NewAPIHandlers(
	logger *slog.Logger,
	instanceRegistry *registry.Registry,
	rep *reporter.Reporter,
	failoverHandler *failover.Handler,
) *APIHandlers {
	return &APIHandlers{
		logger:          logger,
		registry:        instanceRegistry,
		reporter:        rep,
		failoverHandler: failoverHandler,
		validator:       validator.New(validator.WithRequiredStructEnabled()),
	}
}

// GetInstances returns lightweight reports for every instance tracked by
// this node.
func (h *APIHandlers) GetInstances(c fiber.Ctx) error {
	records := h.registry.Records()

	reports := make([]*report.Report, 0, len(records))
	for _, record := range records {
		reports = append(reports, report.Build(record, report.Light()))
	}

	return c.JSON(fiber.Map{
		"instances": reports,
		"count":     len(reports),
	})
}

// GetInstance returns the full report for one tracked instance. The
// instance may be removed concurrently by a terminal event; that is a plain
// 404, never an error.
func (h *APIHandlers) GetInstance(c fiber.Ctx) error {
	opts := report.Full()

	if dataStr := c.Query("data"); dataStr != "" {
		includeData, err := strconv.ParseBool(dataStr)
		if err != nil {
			return badRequest(c, "Invalid data query parameter: "+err.Error())
		}

		opts.IncludeData = includeData
	}

	record, err := h.registry.Get(c.Params("id"))
	if err != nil {
		return notFound(c, "instance not tracked by this node")
	}

	return c.JSON(report.Build(record, opts))
}

// RescueInstance is the peer submission endpoint: it accepts the shared
// report entry of an instance orphaned by a failed node and adopts it.
// Answering 200 means this node now owns the instance.
func (h *APIHandlers) RescueInstance(c fiber.Ctx) error {
	var entry sharedstore.Entry

	err := c.Bind().JSON(&entry)
	if err != nil {
		return badRequest(c, "Invalid rescue payload: "+err.Error())
	}

	err = h.validator.Struct(&entry)
	if err != nil {
		return unprocessable(c, "Invalid rescue payload: "+err.Error())
	}

	if entry.SchemaVersion != sharedstore.SchemaVersion {
		return unprocessable(c, "Unsupported shared entry schema version")
	}

	err = h.reporter.Adopt(c.Context(), &entry)
	if err != nil {
		h.logger.Error("Failed to adopt rescued instance",
			"instance_id", entry.InstanceID,
			"error", err)

		return engineUnavailable(c, err)
	}

	return c.JSON(fiber.Map{
		"instance_id": entry.Report.InstanceID(),
		"adopted":     true,
	})
}

// TriggerFailover runs a rescue pass for an explicit list of failed nodes.
// Operational escape hatch for fleets whose membership layer cannot push
// failure notifications.
func (h *APIHandlers) TriggerFailover(c fiber.Ctx) error {
	var request FailoverRequest

	err := c.Bind().JSON(&request)
	if err != nil {
		return badRequest(c, "Invalid failover request: "+err.Error())
	}

	err = h.validator.Struct(&request)
	if err != nil {
		return unprocessable(c, "Invalid failover request: "+err.Error())
	}

	h.failoverHandler.RescueNodes(c.Context(), request.FailedNodes)

	return c.JSON(fiber.Map{
		"failed_nodes": request.FailedNodes,
		"processed":    true,
	})
}
