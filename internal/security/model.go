package security

import (
	"sort"
	"strings"
	"time"
)

// Kind tells which upstream payload shape a token was decoded from.
type Kind string

const (
	KindEVM    Kind = "evm"
	KindSolana Kind = "solana"
)

// Report is the normalized result of one query, keyed by the address the
// API returned (EVM addresses come back lowercased).
type Report struct {
	ChainID   string            `json:"chain_id"`
	Tokens    map[string]*Token `json:"tokens"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// Addresses returns the report's addresses in sorted order.
func (r *Report) Addresses() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Tokens))
	for addr := range r.Tokens {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

// lookup finds the token for addr, ignoring case for hex addresses.
func (r *Report) lookup(addr string) *Token {
	if r == nil {
		return nil
	}
	if t, ok := r.Tokens[addr]; ok {
		return t
	}
	if strings.HasPrefix(addr, "0x") {
		for k, t := range r.Tokens {
			if strings.EqualFold(k, addr) {
				return t
			}
		}
	}
	return nil
}

// Empty reports whether the report holds no tokens.
func (r *Report) Empty() bool {
	return r == nil || len(r.Tokens) == 0
}

// Token is the canonical field set for both chain families. Fields a family
// does not send stay absent; Solana fields the API omits are filled with
// defaults during normalization.
type Token struct {
	Kind    Kind   `json:"kind"`
	Address string `json:"address"`

	// Contract security
	IsOpenSource         Value `json:"is_open_source,omitzero"`
	IsProxy              Value `json:"is_proxy,omitzero"`
	IsMintable           Value `json:"is_mintable,omitzero"`
	OwnerAddress         Value `json:"owner_address,omitzero"`
	CanTakeBackOwnership Value `json:"can_take_back_ownership,omitzero"`
	OwnerChangeBalance   Value `json:"owner_change_balance,omitzero"`
	HiddenOwner          Value `json:"hidden_owner,omitzero"`
	Selfdestruct         Value `json:"selfdestruct,omitzero"`
	ExternalCall         Value `json:"external_call,omitzero"`
	GasAbuse             Value `json:"gas_abuse,omitzero"`

	// Trading security
	IsInDex                    Value `json:"is_in_dex,omitzero"`
	BuyTax                     Value `json:"buy_tax,omitzero"`
	SellTax                    Value `json:"sell_tax,omitzero"`
	TransferTax                Value `json:"transfer_tax,omitzero"`
	CannotBuy                  Value `json:"cannot_buy,omitzero"`
	CannotSellAll              Value `json:"cannot_sell_all,omitzero"`
	SlippageModifiable         Value `json:"slippage_modifiable,omitzero"`
	IsHoneypot                 Value `json:"is_honeypot,omitzero"`
	TransferPausable           Value `json:"transfer_pausable,omitzero"`
	IsBlacklisted              Value `json:"is_blacklisted,omitzero"`
	IsWhitelisted              Value `json:"is_whitelisted,omitzero"`
	IsAntiWhale                Value `json:"is_anti_whale,omitzero"`
	AntiWhaleModifiable        Value `json:"anti_whale_modifiable,omitzero"`
	TradingCooldown            Value `json:"trading_cooldown,omitzero"`
	PersonalSlippageModifiable Value `json:"personal_slippage_modifiable,omitzero"`

	// Token info
	TokenName   Value `json:"token_name,omitzero"`
	TokenSymbol Value `json:"token_symbol,omitzero"`
	Description Value `json:"description,omitzero"`
	HolderCount Value `json:"holder_count,omitzero"`
	TotalSupply Value `json:"total_supply,omitzero"`

	DEX       []DEX    `json:"dex"`
	Holders   []Holder `json:"holders"`
	LPHolders []Holder `json:"lp_holders"`

	// Advanced
	IsAirdropScam       Value `json:"is_airdrop_scam,omitzero"`
	TrustList           Value `json:"trust_list,omitzero"`
	OtherPotentialRisks Value `json:"other_potential_risks,omitzero"`
	Note                Value `json:"note,omitzero"`

	// Solana token program authorities
	Mintable                      Authority          `json:"mintable"`
	Freezable                     Authority          `json:"freezable"`
	Closable                      Authority          `json:"closable"`
	BalanceMutableAuthority       Authority          `json:"balance_mutable_authority"`
	MetadataMutable               Authority          `json:"metadata_mutable"`
	DefaultAccountStateUpgradable Authority          `json:"default_account_state_upgradable"`
	TransferFeeUpgradable         Authority          `json:"transfer_fee_upgradable"`
	TransferHookUpgradable        Authority          `json:"transfer_hook_upgradable"`
	NonTransferable               Value              `json:"non_transferable,omitzero"`
	TrustedToken                  Value              `json:"trusted_token,omitzero"`
	DefaultAccountState           Value              `json:"default_account_state,omitzero"`
	TransferFee                   map[string]any     `json:"transfer_fee"`
	TransferHook                  []any              `json:"transfer_hook"`
	Creators                      []AuthorityAddress `json:"creators"`
}

// Authority is a Solana capability flag plus the accounts holding it.
type Authority struct {
	Status    Value              `json:"status,omitzero"`
	Addresses []AuthorityAddress `json:"authority"`
}

// AuthorityAddress is an account with a maliciousness flag.
type AuthorityAddress struct {
	Address          string `json:"address"`
	MaliciousAddress Value  `json:"malicious_address,omitzero"`
}

// DEX summarizes one liquidity venue.
type DEX struct {
	Name      Value     `json:"name,omitzero"`
	Pair      Value     `json:"pair,omitzero"`
	Liquidity Value     `json:"liquidity,omitzero"`
	Price     Value     `json:"price,omitzero"`
	TVL       Value     `json:"tvl,omitzero"`
	FeeRate   Value     `json:"fee_rate,omitzero"`
	Day       *DEXStats `json:"day,omitempty"`
}

// DEXStats is a rolling 24h window.
type DEXStats struct {
	Volume   Value `json:"volume,omitzero"`
	PriceMax Value `json:"price_max,omitzero"`
	PriceMin Value `json:"price_min,omitzero"`
}

// Holder is one entry of a holder or LP holder list, in upstream order.
type Holder struct {
	Address  string `json:"address"`
	Balance  Value  `json:"balance,omitzero"`
	Percent  Value  `json:"percent,omitzero"`
	IsLocked Value  `json:"is_locked,omitzero"`
	Tag      Value  `json:"tag,omitzero"`
}
