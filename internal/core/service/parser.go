package service

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/blackoutassasin/NF-BOT/internal/core/domain"
)

// Receipt parsing is an ordered rule set over OCR output. Rules never guess:
// a field that cannot be located near a label stays unset and the candidate's
// confidence drops.

var (
	tokenPattern  = regexp.MustCompile(`[A-Za-z0-9]+`)
	amountPattern = regexp.MustCompile(`[0-9]{1,7}(?:\.[0-9]{1,2})?`)
)

// trxLabels are matched against OCR-normalized tokens, so "TrxID", "Trx 1D"
// and "TRX1D:" all count as a transaction-id label.
var trxLabels = []string{"trxid", "transactionid", "transaction", "txnid", "txn", "tranid", "trx"}

var amountLabels = []string{"amount", "total", "paid", "tk", "bdt", "taka", "৳"}

const (
	minTrxIDLen     = 6
	maxTrxIDLen     = 16
	trxIDLookahead  = 6   // tokens scanned after a label
	amountLabelSpan = 24  // bytes scanned around an amount label
	amountTolerance = 1   // taka, for matching the expected price
)

type token struct {
	text  string
	index int // position in reading order
}

// ParseReceipt extracts a verification candidate from raw screenshot text.
// expectedAmount feeds the amount fallback rule only; the parser performs no
// policy decisions.
func ParseReceipt(rawText string, expectedAmount int64) domain.VerificationCandidate {
	candidate := domain.VerificationCandidate{RawText: rawText}

	tokens := tokenize(rawText)

	if id, ok := extractTrxID(tokens); ok {
		candidate.TrxID = strings.ToUpper(id)
		candidate.HasTrxID = true
	}
	if amount, ok := extractAmount(rawText, expectedAmount); ok {
		candidate.Amount = amount
		candidate.HasAmount = true
	}
	return candidate
}

func tokenize(text string) []token {
	matches := tokenPattern.FindAllString(text, -1)
	tokens := make([]token, len(matches))
	for i, m := range matches {
		tokens[i] = token{text: m, index: i}
	}
	return tokens
}

// ocrNormalize lowercases and folds the digit shapes OCR commonly confuses
// with letters, for label matching only.
func ocrNormalize(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer("0", "o", "1", "i", "5", "s", "8", "b").Replace(s)
}

// labelRemainder returns the glued id portion of a token like "TrxID9G45H6J7K8",
// or "" when the token is the bare label.
func labelRemainder(raw string) string {
	normalized := ocrNormalize(raw)
	for _, label := range trxLabels {
		if strings.HasPrefix(normalized, label) && len(raw) > len(label) {
			return raw[len(label):]
		}
	}
	return ""
}

// idConnectors are label continuations like the "ID" in "Txn ID"; a value
// right after one still counts as label-adjacent.
var idConnectors = map[string]bool{"id": true, "no": true, "number": true}

func isIDConnector(raw string) bool {
	return idConnectors[ocrNormalize(raw)]
}

func isTrxLabel(raw string) bool {
	normalized := ocrNormalize(raw)
	for _, label := range trxLabels {
		if strings.Contains(normalized, label) {
			return true
		}
	}
	return false
}

// idShaped accepts contiguous alphanumeric tokens of plausible length that
// mix letters and digits, which rules out prose words and bare amounts.
// adjacent loosens the mix requirement to digit-only ids: directly after a
// label there is no prose to confuse, and Nagad and bank references are
// often purely numeric.
func idShaped(s string, adjacent bool) bool {
	if len(s) < minTrxIDLen || len(s) > maxTrxIDLen {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		default:
			return false
		}
	}
	if adjacent && !hasLetter {
		return hasDigit
	}
	return hasLetter && hasDigit
}

// extractTrxID picks the best id-shaped token after a label: closest to its
// label first, then longest, then earliest in reading order.
func extractTrxID(tokens []token) (string, bool) {
	type match struct {
		text     string
		distance int
		index    int
	}
	var matches []match

	for i, tok := range tokens {
		if !isTrxLabel(tok.text) {
			continue
		}
		// OCR may have dropped the space between label and value.
		if rest := labelRemainder(tok.text); idShaped(rest, true) {
			matches = append(matches, match{text: rest, distance: 0, index: tok.index})
		}
		for j := i + 1; j < len(tokens) && j <= i+trxIDLookahead; j++ {
			next := tokens[j]
			if isTrxLabel(next.text) {
				break
			}
			adjacent := j == i+1 || (j == i+2 && isIDConnector(tokens[i+1].text))
			if idShaped(next.text, adjacent) {
				matches = append(matches, match{text: next.text, distance: j - i, index: next.index})
			}
		}
	}
	if len(matches) == 0 {
		return "", false
	}

	best := matches[0]
	for _, m := range matches[1:] {
		switch {
		case m.distance < best.distance:
			best = m
		case m.distance == best.distance && len(m.text) > len(best.text):
			best = m
		case m.distance == best.distance && len(m.text) == len(best.text) && m.index < best.index:
			best = m
		}
	}
	return best.text, true
}

// extractAmount applies two rules in order: the first numeric token near an
// amount/currency label, then any numeric token equal to the expected sale
// price within tolerance.
func extractAmount(rawText string, expectedAmount int64) (int64, bool) {
	lower := strings.ToLower(rawText)

	spans := amountPattern.FindAllStringIndex(rawText, -1)
	type numeric struct {
		value int64
		start int
	}
	var numbers []numeric
	for _, span := range spans {
		start, end := span[0], span[1]
		// Digits glued to letters belong to an id, not an amount.
		if start > 0 && isAlnumByte(rawText[start-1]) {
			continue
		}
		if end < len(rawText) && isAlnumByte(rawText[end]) {
			continue
		}
		parsed, err := strconv.ParseFloat(rawText[start:end], 64)
		if err != nil {
			continue
		}
		numbers = append(numbers, numeric{value: int64(math.Round(parsed)), start: start})
	}
	if len(numbers) == 0 {
		return 0, false
	}

	for _, n := range numbers {
		if nearAmountLabel(lower, n.start) {
			return n.value, true
		}
	}
	for _, n := range numbers {
		if diff := n.value - expectedAmount; diff >= -amountTolerance && diff <= amountTolerance {
			return n.value, true
		}
	}
	return 0, false
}

func nearAmountLabel(lower string, pos int) bool {
	from := pos - amountLabelSpan
	if from < 0 {
		from = 0
	}
	to := pos + amountLabelSpan
	if to > len(lower) {
		to = len(lower)
	}
	window := lower[from:to]
	for _, label := range amountLabels {
		if strings.Contains(window, label) {
			return true
		}
	}
	return false
}

func isAlnumByte(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
