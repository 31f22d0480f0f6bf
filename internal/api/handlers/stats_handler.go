package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/msaleh83/pagepilot/internal/sysmon"
)

type StatsHandler struct {
	monitor *sysmon.Monitor
}

func NewStatsHandler(monitor *sysmon.Monitor) *StatsHandler {
	return &StatsHandler{monitor: monitor}
}

func (h *StatsHandler) Stats(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.monitor.Snapshot(c.Context()))
}

func (h *StatsHandler) ServerStats(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.monitor.Simple(c.Context()))
}

func (h *StatsHandler) Services(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"services": h.monitor.Services(c.Context()),
	})
}
