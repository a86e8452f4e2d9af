// Package accounts defines the user and provider records shared by the
// backend and its clients.
package accounts

import (
	"time"

	"github.com/md-rashed-zaman/appointmed/libs/access"
	"github.com/md-rashed-zaman/appointmed/libs/appointments"
)

type User struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Phone           string      `json:"phone,omitempty"`
	Role            access.Role `json:"role"`
	IsActive        bool        `json:"isActive"`
	Specialty       string      `json:"specialty,omitempty"`
	Experience      int         `json:"experience,omitempty"`
	Bio             string      `json:"bio,omitempty"`
	Location        string      `json:"location,omitempty"`
	ConsultationFee float64     `json:"consultationFee,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// Provider is the public listing of a user with the provider role.
type Provider struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone,omitempty"`
	Specialty       string  `json:"specialty"`
	Experience      int     `json:"experience"`
	Bio             string  `json:"bio,omitempty"`
	Location        string  `json:"location,omitempty"`
	ConsultationFee float64 `json:"consultationFee"`
}

func (u User) Provider() Provider {
	return Provider{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Phone:           u.Phone,
		Specialty:       u.Specialty,
		Experience:      u.Experience,
		Bio:             u.Bio,
		Location:        u.Location,
		ConsultationFee: u.ConsultationFee,
	}
}

// Party is how u appears on an appointment.
func (u User) Party() appointments.Party {
	p := appointments.Party{ID: u.ID, Name: u.Name}
	if u.Role == access.RoleProvider {
		p.Specialty = u.Specialty
		return p
	}
	p.Email = u.Email
	p.Phone = u.Phone
	return p
}

// Slot is a bookable time range of a provider.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overview aggregates what the admin screen shows.
type Overview struct {
	TotalUsers        int                        `json:"totalUsers"`
	ActiveUsers       int                        `json:"activeUsers"`
	UsersByRole       map[access.Role]int        `json:"usersByRole"`
	TotalAppointments int                        `json:"totalAppointments"`
	Counts            appointments.Counts        `json:"counts"`
	Upcoming          []appointments.Appointment `json:"upcoming"`
}

// Summarize builds the admin overview with at most limit upcoming appointments.
func Summarize(users []User, appts []appointments.Appointment, now time.Time, limit int) Overview {
	o := Overview{
		TotalUsers:        len(users),
		UsersByRole:       map[access.Role]int{},
		TotalAppointments: len(appts),
		Counts:            appointments.CountByCategory(appts, now),
	}
	for _, u := range users {
		o.UsersByRole[u.Role]++
		if u.IsActive {
			o.ActiveUsers++
		}
	}
	upcoming := appointments.Classify(appts, appointments.ViewUpcoming, now)
	if limit >= 0 && len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	o.Upcoming = upcoming
	return o
}
