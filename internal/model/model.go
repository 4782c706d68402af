// Package model defines domain entities exchanged with the admin backend.
package model

import "time"

// Session is the locally held authentication state. Tokens are persisted to the
// secure key-value store before this struct is updated in memory, so a process
// restart can recover the session from storage alone.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// TokenPair is the payload of /auth/login and /auth/refresh responses.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	ExpiresAt        time.Time `json:"expiresAt,omitempty"`
	ExpiresIn        int64     `json:"expiresIn,omitempty"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt,omitempty"`
}

// LoginRequest carries the admin password plus device fingerprint metadata.
type LoginRequest struct {
	Password    string `json:"password"`
	DeviceID    string `json:"deviceId"`
	DeviceName  string `json:"deviceName"`
	DeviceModel string `json:"deviceModel,omitempty"`
	OSVersion   string `json:"osVersion,omitempty"`
	AppVersion  string `json:"appVersion,omitempty"`
	FCMToken    string `json:"fcmToken,omitempty"`
}

// AuthCheck is the payload of GET /auth/check.
type AuthCheck struct {
	Device      DeviceSession `json:"device"`
	Session     SessionInfo   `json:"session"`
	Security    SecurityInfo  `json:"security"`
	HasFCMToken bool          `json:"hasFcmToken"`
}

// DeviceSession describes one authenticated device as reported by the server.
type DeviceSession struct {
	DeviceID   string    `json:"deviceId"`
	DeviceName string    `json:"deviceName"`
	Current    bool      `json:"current"`
	LastSeenAt time.Time `json:"lastSeenAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SessionInfo describes the server-side session attached to the current token.
type SessionInfo struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SecurityInfo summarizes recent security events for the account.
type SecurityInfo struct {
	AlertCount  int       `json:"alertCount"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}

// SecurityAlert is one entry of GET /auth/security-alerts.
type SecurityAlert struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	DeviceID  string    `json:"deviceId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthStats is the payload of GET /auth/stats.
type AuthStats struct {
	ActiveSessions int `json:"activeSessions"`
	TotalDevices   int `json:"totalDevices"`
	AlertCount     int `json:"alertCount"`
}

// PageMeta mirrors the server's pagination block.
type PageMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	Total       int `json:"total"`
	PerPage     int `json:"per_page"`
}

// Event is a managed event as listed by the admin API.
type Event struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	Category          string    `json:"category"`
	Location          string    `json:"location"`
	Capacity          int       `json:"capacity"`
	Published         bool      `json:"published"`
	StartsAt          time.Time `json:"starts_at"`
	EndsAt            time.Time `json:"ends_at"`
	RegistrationCount int       `json:"registration_count"`
}

// EventInput is the mutable subset of Event accepted by create/update.
type EventInput struct {
	Title     string     `json:"title,omitempty"`
	Category  string     `json:"category,omitempty"`
	Location  string     `json:"location,omitempty"`
	Capacity  *int       `json:"capacity,omitempty"`
	Published *bool      `json:"published,omitempty"`
	StartsAt  *time.Time `json:"starts_at,omitempty"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
}

// User is an end user account visible to the admin.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Blocked   bool      `json:"is_blocked"`
	CreatedAt time.Time `json:"created_at"`
}

// UserInput is the mutable subset of User accepted by create/update.
type UserInput struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Blocked *bool  `json:"is_blocked,omitempty"`
}

// RegistrationStatus enumerates the lifecycle of a registration.
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCancelled RegistrationStatus = "cancelled"
	RegistrationAttended  RegistrationStatus = "attended"
)

// Registration links a user to an event, with a QR payload for check-in.
type Registration struct {
	ID        int64              `json:"id"`
	EventID   int64              `json:"event_id"`
	UserID    int64              `json:"user_id"`
	Status    RegistrationStatus `json:"status"`
	QRCode    string             `json:"qr_code"`
	UserName  string             `json:"user_name,omitempty"`
	EventName string             `json:"event_name,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// EventStats is the payload of GET /events/stats.
type EventStats struct {
	Total     int `json:"total"`
	Published int `json:"published"`
	Upcoming  int `json:"upcoming"`
}

// UserStats is the payload of GET /users/stats.
type UserStats struct {
	Total   int `json:"total"`
	Blocked int `json:"blocked"`
	NewWeek int `json:"new_this_week"`
}

// RegistrationStats is the payload of GET /registrations/stats.
type RegistrationStats struct {
	Total     int `json:"total"`
	Confirmed int `json:"confirmed"`
	Attended  int `json:"attended"`
	Cancelled int `json:"cancelled"`
}

// DashboardStats aggregates the three per-resource stats blocks.
type DashboardStats struct {
	Events        EventStats        `json:"events"`
	Users         UserStats         `json:"users"`
	Registrations RegistrationStats `json:"registrations"`
}

// DeviceInfo is the fingerprint the client sends on login.
type DeviceInfo struct {
	DeviceID    string
	DeviceName  string
	DeviceModel string
	OSVersion   string
	AppVersion  string
	FCMToken    string
}
