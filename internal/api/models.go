package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type ProductStatus string

const (
	StatusSale     ProductStatus = "SALE"
	StatusReserved ProductStatus = "RESERVED"
	StatusSold     ProductStatus = "SOLD"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"

	UserActive    = "ACTIVE"
	UserSuspended = "SUSPENDED"
)

// Timestamp accepts RFC3339 as well as the zone-less ISO-8601 form the
// backend emits for local date-times.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

type User struct {
	UserID   int64  `json:"userId" validate:"required"`
	Nickname string `json:"nickname"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	Status   string `json:"status,omitempty"`
}

type Product struct {
	ID          int64         `json:"id" validate:"required"`
	Title       string        `json:"title" validate:"required"`
	Description string        `json:"description"`
	Price       int64         `json:"price" validate:"gte=0"`
	Category    string        `json:"category"`
	Status      ProductStatus `json:"status" validate:"required,oneof=SALE RESERVED SOLD"`
	Area        string        `json:"area"`
	Images      []string      `json:"images"`
	CreatedAt   Timestamp     `json:"createdAt"`
	Seller      *User         `json:"seller,omitempty"`
}

// Page is the backend's paging envelope.
type Page[T any] struct {
	Content       []T   `json:"content" validate:"dive"`
	TotalPages    int   `json:"totalPages" validate:"gte=0"`
	TotalElements int64 `json:"totalElements"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}

type Area struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required"`
}

type ChatMessage struct {
	MessageID int64     `json:"messageId" validate:"required"`
	SenderID  int64     `json:"senderId" validate:"required"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"createdAt"`
	IsRead    bool      `json:"isRead"`
}

// ChatProduct is the product as embedded in a chat room.
type ChatProduct struct {
	ID         int64         `json:"id" validate:"required"`
	Title      string        `json:"title"`
	Price      int64         `json:"price"`
	Status     ProductStatus `json:"status,omitempty"`
	Images     []string      `json:"images"`
	IsReserved bool          `json:"isReserved"`
}

type ChatInfo struct {
	ChatID   int64        `json:"chatId" validate:"required"`
	BuyerID  int64        `json:"buyerId" validate:"required"`
	SellerID int64        `json:"sellerId" validate:"required"`
	Product  *ChatProduct `json:"product,omitempty"`
	Buyer    *User        `json:"buyer,omitempty"`
	Seller   *User        `json:"seller,omitempty"`
}

type ChatSummary struct {
	ChatID        int64      `json:"chatId" validate:"required"`
	ProductID     int64      `json:"productId"`
	ProductTitle  string     `json:"productTitle"`
	Opponent      *User      `json:"opponent,omitempty"`
	LastMessage   string     `json:"lastMessage"`
	LastMessageAt *Timestamp `json:"lastMessageAt,omitempty"`
	UnreadCount   int        `json:"unreadCount"`
}

type Notification struct {
	NotificationID int64     `json:"notificationId" validate:"required"`
	Message        string    `json:"message"`
	SentAt         Timestamp `json:"sentAt"`
	IsRead         bool      `json:"isRead"`
}

type Report struct {
	ReportID     int64     `json:"reportId" validate:"required"`
	ReporterID   int64     `json:"reporterId" validate:"required"`
	TargetUserID int64     `json:"targetUserId" validate:"required"`
	ProductID    *int64    `json:"productId,omitempty"`
	Reason       string    `json:"reason"`
	Detail       string    `json:"detail"`
	Processed    bool      `json:"processed"`
	CreatedAt    Timestamp `json:"createdAt"`
}

type DibState struct {
	ProductID int64 `json:"productId" validate:"required"`
	Dibbed    bool  `json:"dibbed"`
}

// Requests.

type SendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Nickname string `json:"nickname" validate:"required,max=20"`
	Phone    string `json:"phone,omitempty"`
	// IdentityVerificationID is the id issued by the identity verification
	// provider once the user passed the phone check.
	IdentityVerificationID string `json:"impUid,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken" validate:"required"`
}

type ProductForm struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=2000"`
	Price       int64    `json:"price" validate:"gte=0"`
	Category    string   `json:"category" validate:"required"`
	Area        string   `json:"area" validate:"required"`
	Images      []string `json:"images,omitempty"`
}

type CreatedChat struct {
	ChatID int64 `json:"chatId" validate:"required"`
}

type ReservationStatusRequest struct {
	Status     string `json:"status"`
	ReasonID   int    `json:"reasonId"`
	Detail     string `json:"detail,omitempty"`
	CanceledBy string `json:"canceledBy"`
}

type ReportRequest struct {
	TargetUserID int64  `json:"targetUserId" validate:"required"`
	ProductID    *int64 `json:"productId,omitempty"`
	Reason       string `json:"reason" validate:"required"`
	Detail       string `json:"detail" validate:"max=255"`
}
