package handler

import (
	"time"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type registerResponse struct {
	User          *domain.User `json:"user"`
	NeedsApproval bool         `json:"needsApproval"`
	Message       string       `json:"message"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type favoriteResponse struct {
	ToolID     string `json:"toolId"`
	IsFavorite bool   `json:"isFavorite"`
}

type toolRequest struct {
	Name         *string   `json:"name" validate:"omitempty,max=100"`
	Description  *string   `json:"description" validate:"omitempty,max=1000"`
	IconName     *string   `json:"iconName" validate:"omitempty,max=64"`
	Color        *string   `json:"color" validate:"omitempty,hexcolor"`
	LaunchType   *string   `json:"launchType" validate:"omitempty,oneof=WEB DESKTOP PROTOCOL web desktop protocol"`
	LaunchURL    *string   `json:"launchUrl" validate:"omitempty,max=2048"`
	Category     *string   `json:"category" validate:"omitempty,max=64"`
	Version      *string   `json:"version" validate:"omitempty,max=32"`
	SortOrder    *int      `json:"sortOrder"`
	IsActive     *bool     `json:"isActive"`
	AllowedRoles *[]string `json:"allowedRoles"`
	HelpText     *string   `json:"helpText"`
}

func (r toolRequest) input() ports.ToolInput {
	return ports.ToolInput{
		Name:         r.Name,
		Description:  r.Description,
		IconName:     r.IconName,
		Color:        r.Color,
		LaunchType:   r.LaunchType,
		LaunchURL:    r.LaunchURL,
		Category:     r.Category,
		Version:      r.Version,
		SortOrder:    r.SortOrder,
		IsActive:     r.IsActive,
		AllowedRoles: r.AllowedRoles,
		HelpText:     r.HelpText,
	}
}

// profileRequest fields are optional; an empty string clears the stored value.
type profileRequest struct {
	TrakaWebURL *string `json:"trakaWebUrl" validate:"omitempty,max=2048"`
	RDPHost     *string `json:"rdpHost" validate:"omitempty,max=255"`
	RDPUsername *string `json:"rdpUsername" validate:"omitempty,max=255"`
	RDPPassword *string `json:"rdpPassword" validate:"omitempty,max=512"`
}

func (r profileRequest) input() ports.ProfileInput {
	return ports.ProfileInput{
		TrakaWebURL: r.TrakaWebURL,
		RDPHost:     r.RDPHost,
		RDPUsername: r.RDPUsername,
		RDPPassword: r.RDPPassword,
	}
}

type userUpdateRequest struct {
	profileRequest
	Role       *string `json:"role"`
	IsActive   *bool   `json:"isActive"`
	IsApproved *bool   `json:"isApproved"`
}

func (r userUpdateRequest) input() ports.UserAdminInput {
	return ports.UserAdminInput{
		ProfileInput: r.profileRequest.input(),
		Role:         r.Role,
		IsActive:     r.IsActive,
		IsApproved:   r.IsApproved,
	}
}

type announcementRequest struct {
	Title       *string    `json:"title" validate:"omitempty,max=200"`
	Content     *string    `json:"content" validate:"omitempty,max=5000"`
	Type        *string    `json:"type" validate:"omitempty,oneof=INFO WARNING UPDATE NEW"`
	IsActive    *bool      `json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	ClearExpiry bool       `json:"clearExpiry"`
}

func (r announcementRequest) input() ports.AnnouncementInput {
	return ports.AnnouncementInput{
		Title:       r.Title,
		Content:     r.Content,
		Type:        r.Type,
		IsActive:    r.IsActive,
		ExpiresAt:   r.ExpiresAt,
		ClearExpiry: r.ClearExpiry,
	}
}

type serviceActionRequest struct {
	Action string `json:"action" validate:"required,oneof=start stop restart"`
}
