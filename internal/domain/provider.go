package domain

import (
	"github.com/google/wire"

	"imessage-mcp/internal/domain/messaging"
)

// DomainProvider provides all domain services
var DomainProvider = wire.NewSet(
	messaging.NewMessagingService,
)
