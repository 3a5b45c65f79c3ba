package security

import (
	"encoding/json"
	"fmt"
)

// payload is the raw per-address result. Exactly one of evm or solana is set,
// chosen by the endpoint that produced it.
type payload struct {
	kind   Kind
	evm    *evmPayload
	solana *solanaPayload
}

func decodePayload(kind Kind, raw json.RawMessage) (payload, error) {
	p := payload{kind: kind}
	switch kind {
	case KindSolana:
		p.solana = &solanaPayload{}
		if err := json.Unmarshal(raw, p.solana); err != nil {
			return p, fmt.Errorf("decode solana token: %w", err)
		}
	default:
		p.kind = KindEVM
		p.evm = &evmPayload{}
		if err := json.Unmarshal(raw, p.evm); err != nil {
			return p, fmt.Errorf("decode evm token: %w", err)
		}
	}
	return p, nil
}

// normalize produces the canonical token for address.
func (p payload) normalize(address string) *Token {
	if p.solana != nil {
		return p.solana.normalize(address)
	}
	return p.evm.normalize(address)
}

type holderPayload struct {
	Address  string `json:"address"`
	Account  string `json:"account"`
	Balance  Value  `json:"balance"`
	Percent  Value  `json:"percent"`
	IsLocked Value  `json:"is_locked"`
	Tag      Value  `json:"tag"`
}

func (h holderPayload) holder() Holder {
	addr := h.Address
	if addr == "" {
		addr = h.Account
	}
	return Holder{
		Address:  addr,
		Balance:  h.Balance,
		Percent:  h.Percent,
		IsLocked: h.IsLocked,
		Tag:      h.Tag,
	}
}

func holders(in []holderPayload) []Holder {
	out := make([]Holder, 0, len(in))
	for _, h := range in {
		out = append(out, h.holder())
	}
	return out
}

type dexPayload struct {
	Name      Value     `json:"name"`
	DexName   Value     `json:"dex_name"`
	Pair      Value     `json:"pair"`
	Liquidity Value     `json:"liquidity"`
	Price     Value     `json:"price"`
	TVL       Value     `json:"tvl"`
	FeeRate   Value     `json:"fee_rate"`
	Day       *DEXStats `json:"day"`
}

func dexes(in []dexPayload) []DEX {
	out := make([]DEX, 0, len(in))
	for _, d := range in {
		out = append(out, DEX{
			Name:      d.Name.Or(d.DexName),
			Pair:      d.Pair,
			Liquidity: d.Liquidity,
			Price:     d.Price,
			TVL:       d.TVL,
			FeeRate:   d.FeeRate,
			Day:       d.Day,
		})
	}
	return out
}

type evmPayload struct {
	IsOpenSource         Value `json:"is_open_source"`
	IsProxy              Value `json:"is_proxy"`
	IsMintable           Value `json:"is_mintable"`
	OwnerAddress         Value `json:"owner_address"`
	CanTakeBackOwnership Value `json:"can_take_back_ownership"`
	OwnerChangeBalance   Value `json:"owner_change_balance"`
	HiddenOwner          Value `json:"hidden_owner"`
	Selfdestruct         Value `json:"selfdestruct"`
	ExternalCall         Value `json:"external_call"`
	GasAbuse             Value `json:"gas_abuse"`

	IsInDex                    Value `json:"is_in_dex"`
	BuyTax                     Value `json:"buy_tax"`
	SellTax                    Value `json:"sell_tax"`
	TransferTax                Value `json:"transfer_tax"`
	CannotBuy                  Value `json:"cannot_buy"`
	CannotSellAll              Value `json:"cannot_sell_all"`
	SlippageModifiable         Value `json:"slippage_modifiable"`
	IsHoneypot                 Value `json:"is_honeypot"`
	TransferPausable           Value `json:"transfer_pausable"`
	IsBlacklisted              Value `json:"is_blacklisted"`
	IsWhitelisted              Value `json:"is_whitelisted"`
	IsAntiWhale                Value `json:"is_anti_whale"`
	AntiWhaleModifiable        Value `json:"anti_whale_modifiable"`
	TradingCooldown            Value `json:"trading_cooldown"`
	PersonalSlippageModifiable Value `json:"personal_slippage_modifiable"`

	TokenName   Value `json:"token_name"`
	TokenSymbol Value `json:"token_symbol"`
	HolderCount Value `json:"holder_count"`
	TotalSupply Value `json:"total_supply"`

	DEX       []dexPayload    `json:"dex"`
	Holders   []holderPayload `json:"holders"`
	LPHolders []holderPayload `json:"lp_holders"`

	IsAirdropScam       Value `json:"is_airdrop_scam"`
	TrustList           Value `json:"trust_list"`
	OtherPotentialRisks Value `json:"other_potential_risks"`
	Note                Value `json:"note"`
}

func (p *evmPayload) normalize(address string) *Token {
	return &Token{
		Kind:    KindEVM,
		Address: address,

		IsOpenSource:         p.IsOpenSource,
		IsProxy:              p.IsProxy,
		IsMintable:           p.IsMintable,
		OwnerAddress:         p.OwnerAddress,
		CanTakeBackOwnership: p.CanTakeBackOwnership,
		OwnerChangeBalance:   p.OwnerChangeBalance,
		HiddenOwner:          p.HiddenOwner,
		Selfdestruct:         p.Selfdestruct,
		ExternalCall:         p.ExternalCall,
		GasAbuse:             p.GasAbuse,

		IsInDex:                    p.IsInDex,
		BuyTax:                     p.BuyTax,
		SellTax:                    p.SellTax,
		TransferTax:                p.TransferTax,
		CannotBuy:                  p.CannotBuy,
		CannotSellAll:              p.CannotSellAll,
		SlippageModifiable:         p.SlippageModifiable,
		IsHoneypot:                 p.IsHoneypot,
		TransferPausable:           p.TransferPausable,
		IsBlacklisted:              p.IsBlacklisted,
		IsWhitelisted:              p.IsWhitelisted,
		IsAntiWhale:                p.IsAntiWhale,
		AntiWhaleModifiable:        p.AntiWhaleModifiable,
		TradingCooldown:            p.TradingCooldown,
		PersonalSlippageModifiable: p.PersonalSlippageModifiable,

		TokenName:   p.TokenName,
		TokenSymbol: p.TokenSymbol,
		HolderCount: p.HolderCount,
		TotalSupply: p.TotalSupply,

		DEX:       dexes(p.DEX),
		Holders:   holders(p.Holders),
		LPHolders: holders(p.LPHolders),

		IsAirdropScam:       p.IsAirdropScam,
		TrustList:           p.TrustList,
		OtherPotentialRisks: p.OtherPotentialRisks,
		Note:                p.Note,

		TransferFee:  map[string]any{},
		TransferHook: []any{},
		Creators:     []AuthorityAddress{},
	}
}

type solanaMetadata struct {
	Name        Value `json:"name"`
	Symbol      Value `json:"symbol"`
	Description Value `json:"description"`
}

type authorityPayload struct {
	Status                   Value              `json:"status"`
	Authority                []AuthorityAddress `json:"authority"`
	MetadataUpgradeAuthority []AuthorityAddress `json:"metadata_upgrade_authority"`
}

type solanaPayload struct {
	Metadata        *solanaMetadata    `json:"metadata"`
	MetadataMutable *authorityPayload  `json:"metadata_mutable"`
	Holders         []holderPayload    `json:"holders"`
	Creators        []AuthorityAddress `json:"creators"`
	DEX             []dexPayload       `json:"dex"`
	HolderCount     Value              `json:"holder_count"`
	TotalSupply     Value              `json:"total_supply"`

	Mintable                      *authorityPayload `json:"mintable"`
	Freezable                     *authorityPayload `json:"freezable"`
	Closable                      *authorityPayload `json:"closable"`
	BalanceMutableAuthority       *authorityPayload `json:"balance_mutable_authority"`
	DefaultAccountStateUpgradable *authorityPayload `json:"default_account_state_upgradable"`
	TransferFeeUpgradable         *authorityPayload `json:"transfer_fee_upgradable"`
	TransferHookUpgradable        *authorityPayload `json:"transfer_hook_upgradable"`

	NonTransferable     Value `json:"non_transferable"`
	TrustedToken        Value `json:"trusted_token"`
	DefaultAccountState Value `json:"default_account_state"`
	TransferFee         any   `json:"transfer_fee"`
	TransferHook        any   `json:"transfer_hook"`
}

// Solana defaults for fields the API leaves out.
var (
	defaultStatus              = Str("0")
	defaultNonTransferable     = Str("0")
	defaultTrustedToken        = Int(0)
	defaultDefaultAccountState = Str("0")
)

// authority fills a missing or status-less flag with status "0".
func authority(p *authorityPayload) Authority {
	if p == nil {
		return Authority{Status: defaultStatus, Addresses: []AuthorityAddress{}}
	}
	addrs := p.Authority
	if len(addrs) == 0 {
		addrs = p.MetadataUpgradeAuthority
	}
	if addrs == nil {
		addrs = []AuthorityAddress{}
	}
	return Authority{Status: p.Status.Or(defaultStatus), Addresses: addrs}
}

func (p *solanaPayload) normalize(address string) *Token {
	meta := p.Metadata
	if meta == nil {
		meta = &solanaMetadata{}
	}

	// metadata_mutable defaults to {} upstream, so an absent status stays absent.
	metaMutable := Authority{Addresses: []AuthorityAddress{}}
	if p.MetadataMutable != nil {
		metaMutable = authority(p.MetadataMutable)
		metaMutable.Status = p.MetadataMutable.Status
	}

	creators := p.Creators
	if creators == nil {
		creators = []AuthorityAddress{}
	}
	transferFee, ok := p.TransferFee.(map[string]any)
	if !ok {
		transferFee = map[string]any{}
	}
	transferHook, ok := p.TransferHook.([]any)
	if !ok {
		transferHook = []any{}
	}

	mintable := authority(p.Mintable)

	return &Token{
		Kind:    KindSolana,
		Address: address,

		IsMintable: mintable.Status,

		TokenName:   meta.Name,
		TokenSymbol: meta.Symbol,
		Description: meta.Description,
		HolderCount: p.HolderCount,
		TotalSupply: p.TotalSupply,

		DEX:       dexes(p.DEX),
		Holders:   holders(p.Holders),
		LPHolders: []Holder{},

		Mintable:                      mintable,
		Freezable:                     authority(p.Freezable),
		Closable:                      authority(p.Closable),
		BalanceMutableAuthority:       authority(p.BalanceMutableAuthority),
		MetadataMutable:               metaMutable,
		DefaultAccountStateUpgradable: authority(p.DefaultAccountStateUpgradable),
		TransferFeeUpgradable:         authority(p.TransferFeeUpgradable),
		TransferHookUpgradable:        authority(p.TransferHookUpgradable),
		NonTransferable:               p.NonTransferable.Or(defaultNonTransferable),
		TrustedToken:                  p.TrustedToken.Or(defaultTrustedToken),
		DefaultAccountState:           p.DefaultAccountState.Or(defaultDefaultAccountState),
		TransferFee:                   transferFee,
		TransferHook:                  transferHook,
		Creators:                      creators,
	}
}
