package communication

import internalerrors "github.com/AnishMulay/devcore/internal/communication/internal"

var (
	ErrServerStartFailed  = internalerrors.ErrServerStartFailed
	ErrServerStopFailed   = internalerrors.ErrServerStopFailed
	ErrMessageSendFailed  = internalerrors.ErrMessageSendFailed
	ErrUnknownPayloadType = internalerrors.ErrUnknownPayloadType
)
