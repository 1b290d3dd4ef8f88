package events

import (
	"context"
	"mime/multipart"
	"sort"
	"time"

	"github.com/alumni-informatik/events-server/internal/domain/ids"
)

// ImageStore validates and persists an uploaded event image, returning
// its public-relative path.
type ImageStore interface {
	Accept(file multipart.File, header *multipart.FileHeader, title string) (string, error)
}

// Service orchestrates create, update, and delete against the event
// collection. Every mutation validates first, then rewrites the whole
// document sorted ascending by start; ties keep insertion order.
type Service struct {
	repo   Repository
	images ImageStore
	loc    *time.Location
	now    func() time.Time
}

func NewService(repo Repository, images ImageStore, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, images: images, loc: loc, now: time.Now}
}

// Create validates the input, ingests the optional image, and persists
// the new event. Text and date fields are validated before the image is
// touched, so a bad image never masks a field error and a rejected
// request is never partially applied.
func (s *Service) Create(ctx context.Context, input EventInput, file multipart.File, header *multipart.FileHeader) (*Event, error) {
	sanitizeInput(&input)

	start, end, err := validateInput(input, s.loc)
	if err != nil {
		return nil, err
	}

	var image *string
	if file != nil && header != nil {
		stored, ierr := s.images.Accept(file, header, input.Title)
		if ierr != nil {
			return nil, ierr
		}
		image = &stored
	}

	id, err := ids.NewEventID(start)
	if err != nil {
		return nil, err
	}

	event := Event{
		ID:          id,
		Title:       input.Title,
		Start:       start,
		End:         end,
		Location:    optional(input.Location),
		Image:       image,
		URL:         optional(input.URL),
		Description: optional(input.Description),
		Tags:        ParseTags(input.Tags),
		CreatedAt:   s.now().In(s.loc),
	}

	collection, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	collection = append(collection, event)
	sortByStart(collection)

	if err := s.repo.Save(ctx, collection); err != nil {
		return nil, err
	}
	return &event, nil
}

// Update replaces all mutable fields of the event with the given id.
// The id, createdAt, and existing image are preserved; a new upload
// replaces the image. The update is all-or-nothing: any validation
// failure leaves the collection untouched and unsaved.
func (s *Service) Update(ctx context.Context, id string, input EventInput, file multipart.File, header *multipart.FileHeader) (*Event, error) {
	if err := ids.ValidateEventID(id); err != nil {
		return nil, err
	}

	sanitizeInput(&input)

	start, end, err := validateInput(input, s.loc)
	if err != nil {
		return nil, err
	}

	collection, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}

	index := indexOf(collection, id)
	if index < 0 {
		return nil, ErrNotFound
	}

	image := collection[index].Image
	if file != nil && header != nil {
		stored, ierr := s.images.Accept(file, header, input.Title)
		if ierr != nil {
			return nil, ierr
		}
		image = &stored
	}

	updatedAt := s.now().In(s.loc)
	event := collection[index]
	event.Title = input.Title
	event.Start = start
	event.End = end
	event.Location = optional(input.Location)
	event.Image = image
	event.URL = optional(input.URL)
	event.Description = optional(input.Description)
	event.Tags = ParseTags(input.Tags)
	event.UpdatedAt = &updatedAt

	collection[index] = event
	sortByStart(collection)

	if err := s.repo.Save(ctx, collection); err != nil {
		return nil, err
	}
	return &event, nil
}

// Delete removes the event with the given id. A missing id is a no-op,
// not an error; survivors keep their relative order.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := ids.ValidateEventID(id); err != nil {
		return err
	}

	collection, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}

	remaining := collection[:0]
	for _, event := range collection {
		if event.ID != id {
			remaining = append(remaining, event)
		}
	}
	return s.repo.Save(ctx, remaining)
}

// List returns the full collection sorted by start.
func (s *Service) List(ctx context.Context) ([]Event, error) {
	return s.repo.Load(ctx)
}

// Get returns the event with the given id.
func (s *Service) Get(ctx context.Context, id string) (*Event, error) {
	if err := ids.ValidateEventID(id); err != nil {
		return nil, err
	}

	collection, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	index := indexOf(collection, id)
	if index < 0 {
		return nil, ErrNotFound
	}
	event := collection[index]
	return &event, nil
}

// Upcoming returns events whose start is at or after now.
func (s *Service) Upcoming(ctx context.Context, now time.Time) ([]Event, error) {
	collection, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	upcoming := []Event{}
	for _, event := range collection {
		if !event.Start.Before(now) {
			upcoming = append(upcoming, event)
		}
	}
	return upcoming, nil
}

func sortByStart(collection []Event) {
	sort.SliceStable(collection, func(i, j int) bool {
		return collection[i].Start.Before(collection[j].Start)
	})
}

func indexOf(collection []Event, id string) int {
	for i, event := range collection {
		if event.ID == id {
			return i
		}
	}
	return -1
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
