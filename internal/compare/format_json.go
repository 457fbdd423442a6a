package compare

import (
	"bytes"
	"encoding/json"

	"github.com/rgehrsitz/ofmcalc/internal/domain"
	"github.com/shopspring/decimal"
)

// JSONFormatter renders a comparison set as one JSON document
type JSONFormatter struct {
	Pretty bool
}

// baseEnvelope is a projected base amount; alternatives carry their own deltas
type baseEnvelope struct {
	Envelope  domain.Envelope `json:"envelope"`
	Projected decimal.Decimal `json:"projected"`
}

type comparisonDocument struct {
	*ComparisonSet
	BaseEnvelopes []baseEnvelope `json:"baseEnvelopes"`
}

// Format writes the set with the base schedule's envelopes listed alongside it.
// HTML escaping is off so schedule names render as entered.
func (jf *JSONFormatter) Format(compSet *ComparisonSet) (string, error) {
	doc := comparisonDocument{ComparisonSet: compSet, BaseEnvelopes: []baseEnvelope{}}
	if compSet.BaseResult != nil {
		for _, e := range comparedEnvelopes {
			doc.BaseEnvelopes = append(doc.BaseEnvelopes, baseEnvelope{
				Envelope:  e,
				Projected: compSet.BaseResult.Amounts.Projected(e),
			})
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if jf.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
