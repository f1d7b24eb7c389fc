package services

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ulixes/xad-sub000/app/dto"
	"github.com/ulixes/xad-sub000/config"
	"github.com/ulixes/xad-sub000/utils"
)

// campaignDepositABI describes the single entry point of the deposit contract
// and the payment event it emits. The permit fields authorize the token
// transfer on-chain and carry no meaning off-chain.
const campaignDepositABI = `[
  {"type":"function","name":"depositForCampaignWithPermit","inputs":[
    {"name":"campaignId","type":"string"},
    {"name":"requirements","type":"tuple","components":[
      {"name":"verifiedOnly","type":"bool"},
      {"name":"minFollowers","type":"uint256"},
      {"name":"minUniqueViews","type":"uint256"},
      {"name":"locationFilter","type":"string"},
      {"name":"languageFilter","type":"string"}]},
    {"name":"actionSpec","type":"tuple","components":[
      {"name":"followTarget","type":"string"},
      {"name":"followCount","type":"uint256"},
      {"name":"likeTargets","type":"string[]"},
      {"name":"likeCountPerTarget","type":"uint256"}]},
    {"name":"deadline","type":"uint256"},
    {"name":"v","type":"uint8"},
    {"name":"r","type":"bytes32"},
    {"name":"s","type":"bytes32"}],
   "outputs":[]},
  {"type":"event","name":"CampaignPaymentReceived","inputs":[
    {"name":"campaignId","type":"string","indexed":false},
    {"name":"sender","type":"address","indexed":true},
    {"name":"amount","type":"uint256","indexed":false},
    {"name":"timestamp","type":"uint256","indexed":false}]}]`

const depositMethodName = "depositForCampaignWithPermit"
const paymentEventName = "CampaignPaymentReceived"

// Decode failure sentinels
var (
	ErrMissingPaymentEvent = errors.New("no payment event emitted by the campaign contract")
	ErrIntentEventMismatch = errors.New("campaign id in call input does not match payment event")
)

// DecodeError reports which field or log failed to decode so a delivery can be
// replayed and diagnosed by transaction hash.
type DecodeError struct {
	Field    string
	LogIndex int
	Err      error
}

func (e *DecodeError) Error() string {
	if e.LogIndex >= 0 {
		return fmt.Sprintf("decode failed at log %d, field %s: %v", e.LogIndex, e.Field, e.Err)
	}
	return fmt.Sprintf("decode failed at field %s: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(field string, err error) *DecodeError {
	return &DecodeError{Field: field, LogIndex: -1, Err: err}
}

// CampaignRequirements is the audience filter committed with the deposit
type CampaignRequirements struct {
	VerifiedOnly   bool
	MinFollowers   uint64
	MinUniqueViews uint64
	LocationFilter string
	LanguageFilter string
}

// CampaignActionSpec describes the engagements the deposit pays for. Targets
// are still obfuscated at this stage.
type CampaignActionSpec struct {
	FollowTarget       string
	FollowCount        uint64
	LikeTargets        []string
	LikeCountPerTarget uint64
}

// DecodedPaymentIntent is the structured result of decoding the deposit call
// input. Derived once per webhook and never mutated.
type DecodedPaymentIntent struct {
	CampaignID   string
	Requirements CampaignRequirements
	ActionSpec   CampaignActionSpec
}

// ConfirmedPayment carries the authoritative amount and timestamp recovered
// from the payment event log. The call input alone is never sufficient: the
// log is the append-only proof that funds moved.
type ConfirmedPayment struct {
	CampaignID      string
	SenderAddress   string
	AmountBaseUnits *big.Int
	Timestamp       time.Time
	TxHash          string
	ToAddress       string
	BlockNumber     uint64
}

// requirementsTuple and actionSpecTuple mirror the ABI tuple layouts for
// abi.ConvertType.
type requirementsTuple struct {
	VerifiedOnly   bool
	MinFollowers   *big.Int
	MinUniqueViews *big.Int
	LocationFilter string
	LanguageFilter string
}

type actionSpecTuple struct {
	FollowTarget       string
	FollowCount        *big.Int
	LikeTargets        []string
	LikeCountPerTarget *big.Int
}

// CampaignDepositDecoder decodes deposit transactions against the known
// contract ABI. It is constructed once at boot and injected; it holds no
// global state so tests can instantiate their own.
type CampaignDepositDecoder struct {
	contractABI     abi.ABI
	contractAddress common.Address
	tokenDecimals   int
}

// NewCampaignDepositDecoder parses the embedded ABI and binds the decoder to
// the configured contract address.
func NewCampaignDepositDecoder(cfg config.BlockchainConfig) (*CampaignDepositDecoder, error) {
	parsed, err := abi.JSON(strings.NewReader(campaignDepositABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse campaign deposit ABI: %w", err)
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address: %s", cfg.ContractAddress)
	}
	return &CampaignDepositDecoder{
		contractABI:     parsed,
		contractAddress: common.HexToAddress(cfg.ContractAddress),
		tokenDecimals:   cfg.TokenDecimals,
	}, nil
}

// ContractAddress returns the deposit contract the decoder is bound to.
func (d *CampaignDepositDecoder) ContractAddress() common.Address {
	return d.contractAddress
}

// TokenDecimals returns the payment token precision the decoder was configured with.
func (d *CampaignDepositDecoder) TokenDecimals() int {
	return d.tokenDecimals
}

// DecodeTransaction decodes the deposit call input and recovers the confirmed
// payment from the transaction's event logs. Both results are returned
// together or not at all; partial decodes never escape.
func (d *CampaignDepositDecoder) DecodeTransaction(tx *dto.WebhookTransaction) (*DecodedPaymentIntent, *ConfirmedPayment, error) {
	intent, err := d.decodeCallInput(tx.Input)
	if err != nil {
		return nil, nil, err
	}

	payment, err := d.findPaymentEvent(tx.Logs)
	if err != nil {
		return nil, nil, err
	}

	if payment.CampaignID != intent.CampaignID {
		return nil, nil, newDecodeError("campaignId", ErrIntentEventMismatch)
	}

	payment.TxHash = strings.ToLower(tx.Hash)
	payment.ToAddress = strings.ToLower(tx.To)
	payment.BlockNumber = tx.BlockNumber
	return intent, payment, nil
}

func (d *CampaignDepositDecoder) decodeCallInput(input string) (*DecodedPaymentIntent, error) {
	data, err := hexToBytes(input)
	if err != nil {
		return nil, newDecodeError("input", err)
	}

	method := d.contractABI.Methods[depositMethodName]
	if len(data) < 4 || !bytes.Equal(data[:4], method.ID) {
		return nil, newDecodeError("selector", fmt.Errorf("call input does not target %s", depositMethodName))
	}

	values, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, newDecodeError("arguments", err)
	}
	if len(values) != 7 {
		return nil, newDecodeError("arguments", fmt.Errorf("expected 7 arguments, got %d", len(values)))
	}

	campaignID, ok := values[0].(string)
	if !ok || campaignID == "" {
		return nil, newDecodeError("campaignId", fmt.Errorf("missing or non-string campaign id"))
	}

	req := *abi.ConvertType(values[1], new(requirementsTuple)).(*requirementsTuple)
	spec := *abi.ConvertType(values[2], new(actionSpecTuple)).(*actionSpecTuple)
	// values[3:] are the permit fields (deadline, v, r, s); consumed on-chain,
	// discarded here.

	minFollowers, err := bigToUint64("requirements.minFollowers", req.MinFollowers)
	if err != nil {
		return nil, err
	}
	minUniqueViews, err := bigToUint64("requirements.minUniqueViews", req.MinUniqueViews)
	if err != nil {
		return nil, err
	}
	followCount, err := bigToUint64("actionSpec.followCount", spec.FollowCount)
	if err != nil {
		return nil, err
	}
	likeCount, err := bigToUint64("actionSpec.likeCountPerTarget", spec.LikeCountPerTarget)
	if err != nil {
		return nil, err
	}

	return &DecodedPaymentIntent{
		CampaignID: campaignID,
		Requirements: CampaignRequirements{
			VerifiedOnly:   req.VerifiedOnly,
			MinFollowers:   minFollowers,
			MinUniqueViews: minUniqueViews,
			LocationFilter: req.LocationFilter,
			LanguageFilter: req.LanguageFilter,
		},
		ActionSpec: CampaignActionSpec{
			FollowTarget:       spec.FollowTarget,
			FollowCount:        followCount,
			LikeTargets:        spec.LikeTargets,
			LikeCountPerTarget: likeCount,
		},
	}, nil
}

// findPaymentEvent scans the transaction logs for the first entry emitted by
// the deposit contract that decodes as a payment event. A transaction can
// carry many unrelated logs (token transfers, permit events); entries that do
// not decode are skipped and the scan continues, first success wins. Only when
// no entry decodes is the failure fatal, and a matched entry with bad data
// makes for a better error than a generic miss.
func (d *CampaignDepositDecoder) findPaymentEvent(logs []dto.WebhookLogEntry) (*ConfirmedPayment, error) {
	var malformed *DecodeError
	for i, entry := range logs {
		payment, ok := d.tryDecodePaymentEvent(entry)
		if !ok {
			continue
		}
		if payment == nil {
			if malformed == nil {
				malformed = &DecodeError{Field: "event data", LogIndex: i, Err: fmt.Errorf("payment event from contract failed to decode")}
			}
			continue
		}
		return payment, nil
	}
	if malformed != nil {
		return nil, malformed
	}
	return nil, newDecodeError("logs", ErrMissingPaymentEvent)
}

// tryDecodePaymentEvent attempts to decode one log entry. The boolean reports
// whether the entry was a payment event from the known contract at all; a true
// return with a nil payment means the entry matched but carried malformed data.
func (d *CampaignDepositDecoder) tryDecodePaymentEvent(entry dto.WebhookLogEntry) (*ConfirmedPayment, bool) {
	if !strings.EqualFold(entry.Address, d.contractAddress.Hex()) {
		return nil, false
	}
	if len(entry.Topics) < 2 {
		return nil, false
	}
	event := d.contractABI.Events[paymentEventName]
	if common.HexToHash(entry.Topics[0]) != event.ID {
		return nil, false
	}

	data, err := hexToBytes(entry.Data)
	if err != nil {
		return nil, true
	}
	values, err := d.contractABI.Unpack(paymentEventName, data)
	if err != nil || len(values) != 3 {
		return nil, true
	}

	campaignID, ok0 := values[0].(string)
	amount, ok1 := values[1].(*big.Int)
	timestamp, ok2 := values[2].(*big.Int)
	if !ok0 || !ok1 || !ok2 || !timestamp.IsInt64() {
		return nil, true
	}

	sender := common.BytesToAddress(common.HexToHash(entry.Topics[1]).Bytes())
	return &ConfirmedPayment{
		CampaignID:      campaignID,
		SenderAddress:   strings.ToLower(sender.Hex()),
		AmountBaseUnits: amount,
		Timestamp:       time.Unix(timestamp.Int64(), 0).UTC(),
	}, true
}

// ToMinorUnits converts a token amount in base units to the application's
// minor currency units. This is the single conversion point for the whole
// pipeline: 1_234_567 base units at 6 decimals becomes 1235 minor units
// (floor-divide, then round up when the remainder is at least half the
// divisor).
func ToMinorUnits(amount *big.Int, tokenDecimals int) uint64 {
	if amount == nil || amount.Sign() <= 0 {
		return 0
	}

	shift := tokenDecimals - utils.MinorUnitDigits
	if shift <= 0 {
		scaled := new(big.Int).Mul(amount, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-shift)), nil))
		return scaled.Uint64()
	}

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(shift)), nil)
	quotient, remainder := new(big.Int).QuoRem(amount, divisor, new(big.Int))
	if new(big.Int).Lsh(remainder, 1).Cmp(divisor) >= 0 {
		quotient.Add(quotient, big.NewInt(1))
	}
	return quotient.Uint64()
}

// bigToUint64 narrows an unpacked uint256 into the counter type the rest of
// the pipeline works in. Counts and thresholds a legitimate deposit carries
// never approach uint64; anything nil or wider is a decode failure, not a
// silent truncation.
func bigToUint64(field string, v *big.Int) (uint64, error) {
	if v == nil {
		return 0, newDecodeError(field, fmt.Errorf("missing value"))
	}
	if !v.IsUint64() {
		return 0, newDecodeError(field, fmt.Errorf("value %s does not fit in uint64", v.String()))
	}
	return v.Uint64(), nil
}

func hexToBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return nil, fmt.Errorf("empty hex payload")
	}
	return hex.DecodeString(s)
}
