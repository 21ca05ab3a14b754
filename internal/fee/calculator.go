// Package fee is the single authoritative fee computation shared by the
// pre-commit preview and the payment commit path.
package fee

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrAmountTooSmall         = errors.New("amount too small to cover fees")
	ErrUnknownScheduleVersion = errors.New("unknown fee schedule version")
)

// Breakdown always satisfies Gross == PlatformFee + ProcessorFee + Payout.
type Breakdown struct {
	Gross           Money `json:"gross_amount"`
	PlatformFee     Money `json:"platform_fee"`
	ProcessorFee    Money `json:"processor_fee"`
	Payout          Money `json:"payout_amount"`
	PlatformRateBps int64 `json:"platform_rate_bps"`
	ScheduleVersion int   `json:"schedule_version"`
}

// Balanced reports whether the parts add up to gross.
func (b Breakdown) Balanced() bool {
	return b.PlatformFee+b.ProcessorFee+b.Payout == b.Gross
}

// Compute prices gross under the given schedule version. It is pure.
func Compute(gross Money, scheduleVersion int) (Breakdown, error) {
	if gross <= 0 || gross > MaxAmount {
		return Breakdown{}, fmt.Errorf("%w: %s", ErrInvalidAmount, gross)
	}

	schedule, err := Lookup(scheduleVersion)
	if err != nil {
		return Breakdown{}, err
	}

	rate := schedule.PlatformRate(gross)
	platformFee := gross.MulBps(rate)
	processorFee := gross.MulBps(schedule.ProcessorRateBps) + schedule.ProcessorFixed

	// payout absorbs any rounding residue so the parts always sum to gross
	payout := gross - platformFee - processorFee
	if payout < 0 {
		return Breakdown{}, fmt.Errorf("%w: %s leaves %s after fees", ErrAmountTooSmall, gross, payout)
	}

	return Breakdown{
		Gross:           gross,
		PlatformFee:     platformFee,
		ProcessorFee:    processorFee,
		Payout:          payout,
		PlatformRateBps: rate,
		ScheduleVersion: schedule.Version,
	}, nil
}
