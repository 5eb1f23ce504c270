// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/servicosdigitais/plataforma/app/dto"
	"github.com/servicosdigitais/plataforma/models"
)

const RequestIDKey = "X-Request-ID"

// timeLayout is the wire format for timestamps in DTOs
const timeLayout = time.RFC3339

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	DeviceInfo map[string]string `json:"device_info,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		DeviceInfo: make(map[string]string),
		Additional: make(map[string]string),
	}
}

// AddDeviceInfo adds device information to the metadata
func (cm *ClientMetadata) AddDeviceInfo(key, value string) {
	if cm.DeviceInfo == nil {
		cm.DeviceInfo = make(map[string]string)
	}
	cm.DeviceInfo[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetSessionID sets the session ID
func (cm *ClientMetadata) SetSessionID(sessionID string) {
	cm.SessionID = sessionID
}

// Clock supplies the current time to flows that reason about it. Tests swap
// in a manual clock to exercise lockout expiry deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// SystemClock returns the wall clock in UTC.
func SystemClock() Clock {
	return systemClock{}
}

// ToAccountDTO converts an account model to AccountDTO for API responses
func ToAccountDTO(account models.Account) dto.AccountDTO {
	d := dto.AccountDTO{
		ID:           account.ID,
		UUID:         account.UUID.String(),
		Email:        account.Email,
		FirstName:    account.FirstName,
		LastName:     account.LastName,
		Phone:        account.Phone,
		AccountType:  account.AccountType.TypeName,
		ProfilePhoto: account.ProfilePhoto,
		CPF:          account.CPF,
		LegalName:    account.LegalName,
		CNPJ:         account.CNPJ,
		Specialty:    account.Specialty,
		IsActive:     account.IsActive,
		IsAdmin:      account.IsAdmin,
		CreatedAt:    account.CreatedAt.Format(timeLayout),
	}

	return d
}

func ToSessionDTO(session models.AccountSession) dto.SessionDTO {
	return dto.SessionDTO{
		SessionToken: session.SessionToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    int(time.Until(session.ExpiresAt).Seconds()),
		TokenType:    "Bearer",
		CreatedAt:    session.CreatedAt.Format(timeLayout),
	}
}
