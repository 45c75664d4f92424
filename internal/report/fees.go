package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spigell/visa-assessor/internal/assessment"
)

// Fee is the professional fee quoted for one visa category, excluding VAT.
type Fee struct {
	Facilitation float64 `mapstructure:"facilitation" json:"facilitation"`
	Disbursement float64 `mapstructure:"disbursement" json:"disbursement"`
	// DisbursementEstimated marks the disbursement as an approximate figure.
	DisbursementEstimated bool `mapstructure:"disbursement-estimated" json:"disbursementEstimated"`
}

type Fees struct {
	General  Fee `mapstructure:"general" json:"general"`
	Critical Fee `mapstructure:"critical" json:"critical"`
}

func DefaultFees() Fees {
	return Fees{
		General:  Fee{Facilitation: 28860, Disbursement: 2685},
		Critical: Fee{Facilitation: 36120, Disbursement: 4020, DisbursementEstimated: true},
	}
}

// For returns the fee for the category.
func (f Fees) For(c assessment.Category) Fee {
	if c == assessment.CategoryCriticalSkills {
		return f.Critical
	}
	return f.General
}

// FacilitationText renders the facilitation fee, e.g. "R28,860.00 (excl. VAT)".
func (f Fee) FacilitationText() string {
	return FormatRand(f.Facilitation) + " (excl. VAT)"
}

func (f Fee) DisbursementText() string {
	if f.DisbursementEstimated {
		return "approx. " + FormatRand(f.Disbursement)
	}
	return FormatRand(f.Disbursement)
}

// FormatRand formats an amount in South African rand with thousands separators.
func FormatRand(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	cents := int64(math.Round(amount * 100))
	whole := strconv.FormatInt(cents/100, 10)

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	return fmt.Sprintf("%sR%s.%02d", sign, b.String(), cents%100)
}
