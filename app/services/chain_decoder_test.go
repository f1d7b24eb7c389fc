package services

import (
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ulixes/xad-sub000/app/dto"
	"github.com/ulixes/xad-sub000/config"
)

const (
	testContractAddress = "0x1a9c8182c09f50c8318d769245bea52c32be35bc"
	testSenderAddress   = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
)

func testDecoder(t *testing.T) *CampaignDepositDecoder {
	t.Helper()
	decoder, err := NewCampaignDepositDecoder(config.BlockchainConfig{
		ContractAddress: testContractAddress,
		TokenDecimals:   6,
	})
	require.NoError(t, err)
	return decoder
}

func testABI(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(campaignDepositABI))
	require.NoError(t, err)
	return parsed
}

func packDepositInput(t *testing.T, campaignID string, req requirementsTuple, spec actionSpecTuple) string {
	t.Helper()
	parsed := testABI(t)
	method := parsed.Methods[depositMethodName]
	packed, err := method.Inputs.Pack(campaignID, req, spec, big.NewInt(9999999999), uint8(27), [32]byte{1}, [32]byte{2})
	require.NoError(t, err)
	return "0x" + hex.EncodeToString(append(append([]byte{}, method.ID...), packed...))
}

func paymentEventLog(t *testing.T, contract, campaignID, sender string, amount *big.Int, timestamp int64) dto.WebhookLogEntry {
	t.Helper()
	parsed := testABI(t)
	event := parsed.Events[paymentEventName]
	data, err := event.Inputs.NonIndexed().Pack(campaignID, amount, big.NewInt(timestamp))
	require.NoError(t, err)
	return dto.WebhookLogEntry{
		Address: contract,
		Topics: []string{
			event.ID.Hex(),
			common.BytesToHash(common.HexToAddress(sender).Bytes()).Hex(),
		},
		Data: "0x" + hex.EncodeToString(data),
	}
}

func defaultRequirements() requirementsTuple {
	return requirementsTuple{
		VerifiedOnly:   true,
		MinFollowers:   big.NewInt(500),
		MinUniqueViews: big.NewInt(1000),
		LocationFilter: "US",
		LanguageFilter: "en",
	}
}

func defaultActionSpec() actionSpecTuple {
	return actionSpecTuple{
		FollowTarget:       "enc_follow_target",
		FollowCount:        big.NewInt(100),
		LikeTargets:        []string{"enc_like_1", "enc_like_2"},
		LikeCountPerTarget: big.NewInt(50),
	}
}

func TestDecodeTransaction(t *testing.T) {
	decoder := testDecoder(t)
	paidAt := int64(1717243200)
	amount := big.NewInt(25_000_000) // 25 USDC

	tx := &dto.WebhookTransaction{
		Hash:        "0xABCDEF0123456789abcdef0123456789abcdef0123456789abcdef0123456789",
		From:        testSenderAddress,
		To:          testContractAddress,
		Input:       packDepositInput(t, "cmp_001", defaultRequirements(), defaultActionSpec()),
		BlockNumber: 123456,
		Logs: []dto.WebhookLogEntry{
			paymentEventLog(t, testContractAddress, "cmp_001", testSenderAddress, amount, paidAt),
		},
	}

	intent, payment, err := decoder.DecodeTransaction(tx)
	require.NoError(t, err)

	assert.Equal(t, "cmp_001", intent.CampaignID)
	assert.True(t, intent.Requirements.VerifiedOnly)
	assert.Equal(t, uint64(500), intent.Requirements.MinFollowers)
	assert.Equal(t, uint64(1000), intent.Requirements.MinUniqueViews)
	assert.Equal(t, "US", intent.Requirements.LocationFilter)
	assert.Equal(t, "en", intent.Requirements.LanguageFilter)
	assert.Equal(t, "enc_follow_target", intent.ActionSpec.FollowTarget)
	assert.Equal(t, uint64(100), intent.ActionSpec.FollowCount)
	assert.Equal(t, []string{"enc_like_1", "enc_like_2"}, intent.ActionSpec.LikeTargets)
	assert.Equal(t, uint64(50), intent.ActionSpec.LikeCountPerTarget)

	assert.Equal(t, "cmp_001", payment.CampaignID)
	assert.Equal(t, strings.ToLower(testSenderAddress), payment.SenderAddress)
	assert.Equal(t, 0, payment.AmountBaseUnits.Cmp(amount))
	assert.Equal(t, time.Unix(paidAt, 0).UTC(), payment.Timestamp)
	assert.Equal(t, strings.ToLower(tx.Hash), payment.TxHash)
	assert.Equal(t, testContractAddress, payment.ToAddress)
	assert.Equal(t, uint64(123456), payment.BlockNumber)
}

func TestDecodeTransactionSelectorMismatch(t *testing.T) {
	decoder := testDecoder(t)
	tx := &dto.WebhookTransaction{
		Hash:  "0xaaa",
		To:    testContractAddress,
		Input: "0xdeadbeef00000000",
	}

	_, _, err := decoder.DecodeTransaction(tx)
	require.Error(t, err)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "selector", decodeErr.Field)
}

func TestDecodeTransactionMalformedInput(t *testing.T) {
	decoder := testDecoder(t)
	tx := &dto.WebhookTransaction{
		Hash:  "0xaaa",
		To:    testContractAddress,
		Input: "not-hex",
	}

	_, _, err := decoder.DecodeTransaction(tx)
	require.Error(t, err)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "input", decodeErr.Field)
}

func TestDecodeTransactionMissingPaymentEvent(t *testing.T) {
	decoder := testDecoder(t)
	tx := &dto.WebhookTransaction{
		Hash:  "0xaaa",
		To:    testContractAddress,
		Input: packDepositInput(t, "cmp_002", defaultRequirements(), defaultActionSpec()),
		Logs: []dto.WebhookLogEntry{
			// An ERC20 Transfer from the token contract, not our event.
			{
				Address: "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913",
				Topics:  []string{"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef", "0x0", "0x0"},
				Data:    "0x",
			},
		},
	}

	_, _, err := decoder.DecodeTransaction(tx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingPaymentEvent))
}

func TestDecodeTransactionSkipsForeignLogs(t *testing.T) {
	decoder := testDecoder(t)
	amount := big.NewInt(1_000_000)

	tx := &dto.WebhookTransaction{
		Hash:  "0xbbb",
		To:    testContractAddress,
		Input: packDepositInput(t, "cmp_003", defaultRequirements(), defaultActionSpec()),
		Logs: []dto.WebhookLogEntry{
			{
				Address: "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913",
				Topics:  []string{"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef", "0x0", "0x0"},
				Data:    "0x01",
			},
			paymentEventLog(t, testContractAddress, "cmp_003", testSenderAddress, amount, 1717243200),
		},
	}

	_, payment, err := decoder.DecodeTransaction(tx)
	require.NoError(t, err)
	assert.Equal(t, 0, payment.AmountBaseUnits.Cmp(amount))
}

func TestDecodeTransactionIntentEventMismatch(t *testing.T) {
	decoder := testDecoder(t)
	tx := &dto.WebhookTransaction{
		Hash:  "0xccc",
		To:    testContractAddress,
		Input: packDepositInput(t, "cmp_004", defaultRequirements(), defaultActionSpec()),
		Logs: []dto.WebhookLogEntry{
			paymentEventLog(t, testContractAddress, "cmp_other", testSenderAddress, big.NewInt(1_000_000), 1717243200),
		},
	}

	_, _, err := decoder.DecodeTransaction(tx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIntentEventMismatch))
}

func TestDecodeTransactionCountOverflow(t *testing.T) {
	decoder := testDecoder(t)
	spec := defaultActionSpec()
	spec.FollowCount = new(big.Int).Lsh(big.NewInt(1), 70) // wider than uint64

	tx := &dto.WebhookTransaction{
		Hash:  "0xeee",
		To:    testContractAddress,
		Input: packDepositInput(t, "cmp_overflow", defaultRequirements(), spec),
		Logs: []dto.WebhookLogEntry{
			paymentEventLog(t, testContractAddress, "cmp_overflow", testSenderAddress, big.NewInt(1_000_000), 1717243200),
		},
	}

	_, _, err := decoder.DecodeTransaction(tx)
	require.Error(t, err)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "actionSpec.followCount", decodeErr.Field)
}

func TestDecodeTransactionPrefersWellFormedEventCopy(t *testing.T) {
	decoder := testDecoder(t)
	amount := big.NewInt(2_000_000)

	truncated := paymentEventLog(t, testContractAddress, "cmp_copy", testSenderAddress, amount, 1717243200)
	truncated.Data = "0x0102"

	tx := &dto.WebhookTransaction{
		Hash:  "0xfff",
		To:    testContractAddress,
		Input: packDepositInput(t, "cmp_copy", defaultRequirements(), defaultActionSpec()),
		Logs: []dto.WebhookLogEntry{
			truncated,
			paymentEventLog(t, testContractAddress, "cmp_copy", testSenderAddress, amount, 1717243200),
		},
	}

	_, payment, err := decoder.DecodeTransaction(tx)
	require.NoError(t, err)
	assert.Equal(t, 0, payment.AmountBaseUnits.Cmp(amount))
}

func TestDecodeTransactionMalformedEventData(t *testing.T) {
	decoder := testDecoder(t)
	good := paymentEventLog(t, testContractAddress, "cmp_005", testSenderAddress, big.NewInt(1), 1717243200)
	good.Data = "0x0102" // matching topics, truncated payload

	tx := &dto.WebhookTransaction{
		Hash:  "0xddd",
		To:    testContractAddress,
		Input: packDepositInput(t, "cmp_005", defaultRequirements(), defaultActionSpec()),
		Logs:  []dto.WebhookLogEntry{good},
	}

	_, _, err := decoder.DecodeTransaction(tx)
	require.Error(t, err)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, 0, decodeErr.LogIndex)
}

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		name     string
		amount   *big.Int
		decimals int
		want     uint64
	}{
		{"RoundsUpFromHalf", big.NewInt(1_234_567), 6, 1235},
		{"RoundsDownBelowHalf", big.NewInt(1_234_499), 6, 1234},
		{"ExactThousandths", big.NewInt(25_000_000), 6, 25000},
		{"OneBaseUnitDust", big.NewInt(1), 6, 0},
		{"ThreeDecimalsIdentity", big.NewInt(1234), 3, 1234},
		{"TwoDecimalsScalesUp", big.NewInt(1234), 2, 12340},
		{"EighteenDecimals", new(big.Int).Mul(big.NewInt(5), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)), 18, 5000},
		{"Zero", big.NewInt(0), 6, 0},
		{"Nil", nil, 6, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToMinorUnits(tc.amount, tc.decimals))
		})
	}
}
