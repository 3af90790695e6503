package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blackoutassasin/NF-BOT/internal/core/domain"
)

const bkashReceipt = `bKash Payment Successful
Amount: 50.00 TK
TrxID: 9G45H6J7K8
Balance: 120.50 TK
01712-3456XX`

func TestParseReceipt_TypicalReceipt(t *testing.T) {
	candidate := ParseReceipt(bkashReceipt, 50)

	assert.True(t, candidate.HasTrxID)
	assert.Equal(t, "9G45H6J7K8", candidate.TrxID)
	assert.True(t, candidate.HasAmount)
	assert.Equal(t, int64(50), candidate.Amount)
	assert.Equal(t, domain.ConfidenceHigh, candidate.Confidence())
}

func TestParseReceipt_GluedLabel(t *testing.T) {
	// OCR often drops the space between label and value.
	candidate := ParseReceipt("Sent 50 TK TrxID9G45H6J7K8 done", 50)

	assert.True(t, candidate.HasTrxID)
	assert.Equal(t, "9G45H6J7K8", candidate.TrxID)
}

func TestParseReceipt_NoisyLabel(t *testing.T) {
	// "1" read for "I" and "0" for "O" in the label itself.
	candidate := ParseReceipt("Trx1D: 8H21KQ9PL4\nAmount 50 TK", 50)

	assert.True(t, candidate.HasTrxID)
	assert.Equal(t, "8H21KQ9PL4", candidate.TrxID)
}

func TestParseReceipt_SpacedLabel(t *testing.T) {
	candidate := ParseReceipt("Transaction ID 9G45H6J7K8 Amount 50 BDT", 50)

	assert.True(t, candidate.HasTrxID)
	assert.Equal(t, "9G45H6J7K8", candidate.TrxID)
	assert.Equal(t, int64(50), candidate.Amount)
}

func TestParseReceipt_NumericOnlyIDAfterLabel(t *testing.T) {
	// Nagad and bank references can be purely numeric; right after the
	// label there is no prose to confuse them with.
	candidate := ParseReceipt("Nagad Payment\nTxn ID: 7401523968\nAmount: 50 TK", 50)

	assert.True(t, candidate.HasTrxID)
	assert.Equal(t, "7401523968", candidate.TrxID)
	assert.Equal(t, int64(50), candidate.Amount)

	candidate = ParseReceipt("Sent 50 TK TrxID7401523968 done", 50)
	assert.True(t, candidate.HasTrxID)
	assert.Equal(t, "7401523968", candidate.TrxID)
}

func TestParseReceipt_NumericOnlyTokenAwayFromLabelIgnored(t *testing.T) {
	// A bare number further from the label keeps the strict mixed shape.
	candidate := ParseReceipt("TrxID ref number then 7401523 more", 50)

	assert.False(t, candidate.HasTrxID)
}

func TestParseReceipt_PrefersTokenClosestToLabel(t *testing.T) {
	candidate := ParseReceipt("TrxID AB12CD34 then ref 9G45H6J7K8", 50)

	assert.Equal(t, "AB12CD34", candidate.TrxID)
}

func TestParseReceipt_IgnoresTokensBeforeLabel(t *testing.T) {
	// Id-shaped text before any label is not a transaction id.
	candidate := ParseReceipt("ref AB12CD34 nothing else here", 50)

	assert.False(t, candidate.HasTrxID)
}

func TestParseReceipt_NeverGuessesMissingFields(t *testing.T) {
	candidate := ParseReceipt("completely unrelated text", 50)

	assert.False(t, candidate.HasTrxID)
	assert.False(t, candidate.HasAmount)
	assert.Equal(t, domain.ConfidenceNone, candidate.Confidence())

	candidate = ParseReceipt("TrxID: 9G45H6J7K8", 50)
	assert.True(t, candidate.HasTrxID)
	assert.False(t, candidate.HasAmount)
	assert.Equal(t, domain.ConfidenceLow, candidate.Confidence())
}

func TestParseReceipt_AmountNearLabelWinsEvenWhenWrong(t *testing.T) {
	// A labeled amount is reported as-is; mismatch is the policy's call.
	candidate := ParseReceipt("Amount: 40 TK TrxID: 9G45H6J7K8", 50)

	assert.True(t, candidate.HasAmount)
	assert.Equal(t, int64(40), candidate.Amount)
}

func TestParseReceipt_AmountFallbackToExpectedPrice(t *testing.T) {
	// No amount label, but a bare number matching the sale price counts.
	candidate := ParseReceipt("sent 50 via bKash TrxID: 9G45H6J7K8", 50)

	assert.True(t, candidate.HasAmount)
	assert.Equal(t, int64(50), candidate.Amount)
}

func TestParseReceipt_UnrelatedNumbersAreNotAmounts(t *testing.T) {
	candidate := ParseReceipt("call 16247 for help, TrxID: 9G45H6J7K8", 50)

	assert.False(t, candidate.HasAmount)
}

func TestParseReceipt_DecimalAmount(t *testing.T) {
	candidate := ParseReceipt("Paid 50.00 Tk, TrxID: 9G45H6J7K8", 50)

	assert.True(t, candidate.HasAmount)
	assert.Equal(t, int64(50), candidate.Amount)
}
