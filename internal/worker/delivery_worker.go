package worker

import (
	"github.com/spec-kit/citizen-request-service/internal/service"
)

// StartDeliveryWorker registers outbound delivery handlers.
func StartDeliveryWorker(deliveryService *service.DeliveryService) {
	if deliveryService == nil {
		return
	}
	deliveryService.RegisterHandlers()
}
