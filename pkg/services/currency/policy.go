package currency

import (
	"fmt"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
)

// Policy says how the proceeds column of a report family maps to USD.
type Policy int

const (
	// PolicyAlreadyUSD: proceeds are reported in USD whatever the customer paid in.
	PolicyAlreadyUSD Policy = iota
	// PolicyConvertWithSign: proceeds are in the partner share currency and returns are negative.
	PolicyConvertWithSign
)

func (p Policy) String() string {
	switch p {
	case PolicyAlreadyUSD:
		return "already-usd"
	case PolicyConvertWithSign:
		return "needs-conversion-with-sign"
	default:
		return "unknown"
	}
}

var policies = map[domain.ReportType]Policy{
	domain.ReportTypeSales:             PolicyAlreadyUSD,
	domain.ReportTypeSubscription:      PolicyAlreadyUSD,
	domain.ReportTypeSubscriptionEvent: PolicyAlreadyUSD,
	domain.ReportTypeSubscriber:        PolicyAlreadyUSD,
	domain.ReportTypeFinancial:         PolicyConvertWithSign,
}

func PolicyFor(reportType domain.ReportType) (Policy, error) {
	p, ok := policies[reportType]
	if !ok {
		return 0, fmt.Errorf("%w: no currency policy for report type %q", domain.ErrConfiguration, reportType)
	}
	return p, nil
}
