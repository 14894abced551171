package metrics

import (
	"context"

	"github.com/techhub5500/Yield-sub002/src/logger"
	"github.com/techhub5500/Yield-sub002/src/models"
	"github.com/techhub5500/Yield-sub002/src/services"
)

// Investment metric IDs.
const (
	MetricNetWorth      = "investments.net_worth"
	MetricProfitability = "investments.profitability"
	MetricAllocation    = "investments.allocation"
)

// RegisterInvestments wires the investment metric handlers into a registry.
func RegisterInvestments(registry *Registry, valuation *services.ValuationService, profitability *services.ProfitabilityService) {
	registry.Register(MetricNetWorth, netWorthHandler(valuation))
	registry.Register(MetricProfitability, profitabilityHandler(profitability))
	registry.Register(MetricAllocation, allocationHandler(valuation))
}

func netWorthHandler(valuation *services.ValuationService) Handler {
	return func(ctx context.Context, req Request) models.MetricResult {
		out, err := valuation.Valuate(ctx, req.UserID, req.Filters, req.AsOf)
		if err != nil {
			logger.FromContext(ctx).Error("Net worth valuation failed", "user_id", req.UserID, "error", err)
			return models.MetricResult{Status: models.StatusError, Error: err.Error()}
		}
		if len(out.Assets) == 0 {
			return models.MetricResult{Status: models.StatusEmpty, Data: out}
		}
		return models.MetricResult{
			Status: models.StatusOK,
			Data:   out,
			Meta:   map[string]any{"asset_count": len(out.Assets)},
		}
	}
}

func profitabilityHandler(profitability *services.ProfitabilityService) Handler {
	return func(ctx context.Context, req Request) models.MetricResult {
		widget, err := profitability.Compute(ctx, req.UserID, req.Filters, req.AsOf)
		if err != nil {
			logger.FromContext(ctx).Error("Profitability computation failed", "user_id", req.UserID, "error", err)
			return models.MetricResult{Status: models.StatusError, Error: err.Error()}
		}
		if !widget.HasData {
			return models.MetricResult{Status: models.StatusEmpty, Data: widget}
		}
		return models.MetricResult{
			Status: models.StatusOK,
			Data:   widget,
			Meta:   map[string]any{"period": widget.Period.Label},
		}
	}
}

func allocationHandler(valuation *services.ValuationService) Handler {
	return func(ctx context.Context, req Request) models.MetricResult {
		out, err := valuation.Allocation(ctx, req.UserID, req.Filters, req.AsOf, req.Filters.GroupBy)
		if err != nil {
			logger.FromContext(ctx).Error("Allocation computation failed", "user_id", req.UserID, "error", err)
			return models.MetricResult{Status: models.StatusError, Error: err.Error()}
		}
		if len(out.Slices) == 0 {
			return models.MetricResult{Status: models.StatusEmpty, Data: out}
		}
		return models.MetricResult{
			Status: models.StatusOK,
			Data:   out,
			Meta:   map[string]any{"group_by": out.GroupBy},
		}
	}
}
