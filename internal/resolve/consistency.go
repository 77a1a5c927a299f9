package resolve

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/claimstack/pricing-service/internal/trust"
)

// productIDDomains are retailers whose product URLs encode item ids, not
// prices. For these, price consistency cannot be read from the URL and is
// assumed to hold.
var productIDDomains = map[string]bool{
	"walmart.com":   true,
	"amazon.com":    true,
	"target.com":    true,
	"bestbuy.com":   true,
	"homedepot.com": true,
	"lowes.com":     true,
	"wayfair.com":   true,
	"costco.com":    true,
}

var urlPriceRe = regexp.MustCompile(`(?:price|prc|p)[=\-_]([0-9]+(?:\.[0-9]{1,2})?)`)

// PriceConsistent reports whether the offer price agrees with any price
// embedded in the URL. URLs without an extractable price are consistent
// when the retailer is a known product-id retailer; otherwise the check
// passes only when the embedded price is within 50% of the offer price.
func PriceConsistent(rawURL string, offerPrice float64) bool {
	if rawURL == "" || offerPrice <= 0 {
		return false
	}
	domain := trust.RegistrableDomain(rawURL)
	if m := urlPriceRe.FindStringSubmatch(strings.ToLower(rawURL)); m != nil {
		embedded, err := strconv.ParseFloat(m[1], 64)
		if err == nil && embedded > 0 {
			diff := embedded - offerPrice
			if diff < 0 {
				diff = -diff
			}
			return diff <= offerPrice*0.5
		}
	}
	return productIDDomains[domain]
}
