package hoyts

import (
	"context"
	"fmt"

	"boxoffice-tracker/lib/restyutil"
	"boxoffice-tracker/lib/sales"

	"github.com/go-resty/resty/v2"
)

type Cinema struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Movie struct {
	VistaID     string `json:"vistaId"`
	Name        string `json:"name"`
	Summary     string `json:"summary"`
	Duration    int    `json:"duration"`
	ReleaseDate string `json:"releaseDate"`
	PosterImage string `json:"posterImage"`
}

type Session struct {
	ID         string `json:"id"`
	MovieID    string `json:"movieId"`
	ShowDate   string `json:"showDate"`
	Date       string `json:"date"`
	TypeID     string `json:"typeId"`
	ScreenName string `json:"screenName"`
	Operator   string `json:"operator"`
}

// When returns the session timestamp, older payloads carry it as date.
func (s Session) When() string {
	if s.ShowDate != "" {
		return s.ShowDate
	}
	return s.Date
}

type Ticket struct {
	TicketTypes []sales.TicketType `json:"ticketTypes"`
}

type api struct {
	http *resty.Client
}

func (a api) cinemas(ctx context.Context) ([]Cinema, error) {
	var out []Cinema
	err := restyutil.GetJSON(ctx, a.http, "/cinemaapi/api/cinemas", &out)
	return out, err
}

func (a api) movies(ctx context.Context) ([]Movie, error) {
	var out []Movie
	err := restyutil.GetJSON(ctx, a.http, "/cinemaapi/api/movies/", &out)
	return out, err
}

func (a api) sessions(ctx context.Context, cinemaId string) ([]Session, error) {
	var out []Session
	err := restyutil.GetJSON(ctx, a.http, fmt.Sprintf("/cinemaapi/api/sessions/%s", cinemaId), &out)
	return out, err
}

func (a api) ticket(ctx context.Context, cinemaId, sessionId string) (Ticket, error) {
	var out Ticket
	err := restyutil.GetJSON(ctx, a.http, fmt.Sprintf("/ticketing/api/v1/ticket/%s/%s", cinemaId, sessionId), &out)
	return out, err
}

func (a api) seats(ctx context.Context, cinemaId, sessionId string) (sales.SeatMap, error) {
	var out sales.SeatMap
	err := restyutil.GetJSON(ctx, a.http, fmt.Sprintf("/ticketing/api/v1/ticket/seats/%s/%s", cinemaId, sessionId), &out)
	return out, err
}
