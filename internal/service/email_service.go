package service

import (
	"context"
	"time"
)

type EmailService interface {
	SendOTP(ctx context.Context, to, code string, ttl time.Duration) error
	SendVerificationRequest(ctx context.Context, to, requester, proofName, message string) error
}
