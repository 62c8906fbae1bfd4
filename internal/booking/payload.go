package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"leadsync/internal/calls"
	"leadsync/internal/normalize"
)

// SourceTag identifies bookings created by this pipeline on the platform.
const SourceTag = "voice-agent-sync"

// defaultBookingHour is the wall-clock start used when a lead has a date but
// no explicit time.
const defaultBookingHour = 9

// bookingDuration is the slot length when only a start time is known.
const bookingDuration = 60 * time.Minute

// ValidateLead checks that a stored record carries enough data to attempt a
// booking. It returns all failures as human-readable messages; an empty
// slice means the lead is bookable. No platform call is made for an invalid
// lead.
func ValidateLead(rec calls.CallRecord, loc *time.Location, now time.Time) []string {
	var errs []string

	if rec.ClientEmail == nil || normalize.CleanEmail(*rec.ClientEmail) == nil {
		errs = append(errs, "client email is missing or invalid")
	}
	if rec.FromNumber == nil || normalize.FormatPhone(*rec.FromNumber) == normalize.PlaceholderPhone {
		errs = append(errs, "client phone is missing or invalid")
	}
	if rec.ClientAddress == nil || normalize.ParseAddress(*rec.ClientAddress).IsUnknown() {
		errs = append(errs, "client address is missing or unusable")
	}

	hasDate := rec.AppointmentDate != nil
	hasStart := rec.AppointmentStart != nil
	hasEnd := rec.AppointmentEnd != nil

	switch {
	case hasDate && hasStart && hasEnd:
		start, err := wallClockInstant(*rec.AppointmentDate, *rec.AppointmentStart, loc)
		if err != nil {
			errs = append(errs, fmt.Sprintf("appointment start is unusable: %v", err))
			break
		}
		end, err := wallClockInstant(*rec.AppointmentDate, *rec.AppointmentEnd, loc)
		if err != nil {
			errs = append(errs, fmt.Sprintf("appointment end is unusable: %v", err))
			break
		}
		if !start.After(now) {
			errs = append(errs, "appointment start must be in the future")
		}
		if !end.After(start) {
			errs = append(errs, "appointment end must be after start")
		}
	case hasDate:
		day, err := time.ParseInLocation("2006-01-02", *rec.AppointmentDate, loc)
		if err != nil {
			errs = append(errs, "appointment date is unusable")
			break
		}
		if !day.After(now) {
			errs = append(errs, "appointment date must be in the future")
		}
	}

	return errs
}

// BuildPayload constructs the outbound booking request.
//
// Appointment resolution, in priority order:
//  1. explicit start time + date: the pair is a wall-clock instant in the
//     company's timezone, converted to UTC; end = start + 60 minutes
//  2. date only: the default wall-clock hour in the company's timezone
//  3. neither: today at the default hour
//
// The email is re-validated here; construction fails on an invalid email
// because validation must already have rejected it.
func BuildPayload(rec calls.CallRecord, loc *time.Location, companyID string, now time.Time) (BookingPayload, error) {
	if rec.ClientEmail == nil {
		return BookingPayload{}, errors.New("booking: lead has no email")
	}
	email := normalize.CleanEmail(*rec.ClientEmail)
	if email == nil {
		return BookingPayload{}, fmt.Errorf("booking: invalid email %q", *rec.ClientEmail)
	}

	address := normalize.UnknownAddress
	if rec.ClientAddress != nil {
		address = normalize.ParseAddress(*rec.ClientAddress)
	}

	phone := normalize.PlaceholderPhone
	if rec.FromNumber != nil {
		phone = normalize.FormatPhone(*rec.FromNumber)
	}

	start, end, err := resolveAppointment(rec, loc, now)
	if err != nil {
		return BookingPayload{}, err
	}

	name := "Unknown Caller"
	if rec.ClientName != nil && *rec.ClientName != "" {
		name = *rec.ClientName
	}
	jobDescription := ""
	if rec.JobDescription != nil {
		jobDescription = *rec.JobDescription
	}

	return BookingPayload{
		CustomerName:   name,
		Email:          *email,
		Phone:          phone,
		Address:        address,
		Start:          start,
		End:            end,
		JobDescription: jobDescription,
		CompanyID:      companyID,
		Source:         SourceTag,
	}, nil
}

func resolveAppointment(rec calls.CallRecord, loc *time.Location, now time.Time) (time.Time, time.Time, error) {
	switch {
	case rec.AppointmentDate != nil && rec.AppointmentStart != nil:
		start, err := wallClockInstant(*rec.AppointmentDate, *rec.AppointmentStart, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("booking: resolve start: %w", err)
		}
		// The stored end only gates validation; the outbound slot is always
		// a fixed duration from the start.
		return start, start.Add(bookingDuration), nil

	case rec.AppointmentDate != nil:
		start, err := wallClockInstant(*rec.AppointmentDate, fmt.Sprintf("%02d:00", defaultBookingHour), loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("booking: resolve date: %w", err)
		}
		return start, start.Add(bookingDuration), nil

	default:
		today := now.In(loc).Format("2006-01-02")
		start, err := wallClockInstant(today, fmt.Sprintf("%02d:00", defaultBookingHour), loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("booking: resolve default slot: %w", err)
		}
		return start, start.Add(bookingDuration), nil
	}
}

// wallClockInstant interprets date ("2006-01-02") and clock ("15:04" or
// "15:04:05") as a wall-clock moment in loc and returns the corresponding
// UTC instant.
func wallClockInstant(date, clock string, loc *time.Location) (time.Time, error) {
	clock = strings.TrimSpace(clock)
	layout := "2006-01-02 15:04"
	if strings.Count(clock, ":") == 2 {
		layout = "2006-01-02 15:04:05"
	}
	t, err := time.ParseInLocation(layout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
