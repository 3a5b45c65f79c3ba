package security

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolanaNormalization(t *testing.T) {
	t.Run("absent structures get defaults", func(t *testing.T) {
		p, err := decodePayload(KindSolana, json.RawMessage(`{}`))
		require.NoError(t, err)
		tok := p.normalize(solMint)

		assert.Equal(t, KindSolana, tok.Kind)
		assert.Equal(t, solMint, tok.Address)
		assert.Equal(t, []Holder{}, tok.Holders)
		assert.Equal(t, []AuthorityAddress{}, tok.Creators)
		assert.Equal(t, map[string]any{}, tok.TransferFee)
		assert.Equal(t, []any{}, tok.TransferHook)

		for name, a := range map[string]Authority{
			"mintable":                         tok.Mintable,
			"freezable":                        tok.Freezable,
			"closable":                         tok.Closable,
			"balance_mutable_authority":        tok.BalanceMutableAuthority,
			"default_account_state_upgradable": tok.DefaultAccountStateUpgradable,
			"transfer_fee_upgradable":          tok.TransferFeeUpgradable,
			"transfer_hook_upgradable":         tok.TransferHookUpgradable,
		} {
			assert.Equal(t, "0", a.Status.String(), name)
		}

		assert.Equal(t, Str("0"), tok.NonTransferable)
		assert.Equal(t, Int(0), tok.TrustedToken)
		assert.Equal(t, Str("0"), tok.DefaultAccountState)
		assert.False(t, tok.MetadataMutable.Status.Present())
		assert.Equal(t, Str("0"), tok.IsMintable)
	})

	t.Run("present values are kept", func(t *testing.T) {
		raw := `{
			"metadata": {"name": "Wrapped SOL", "symbol": "SOL", "description": "wrapped"},
			"metadata_mutable": {"status": "1", "metadata_upgrade_authority": [{"address": "Auth111", "malicious_address": 1}]},
			"mintable": {"status": "1", "authority": [{"address": "Mint111", "malicious_address": 0}]},
			"freezable": {"status": "0"},
			"holders": [{"account": "Acc1", "balance": "10", "percent": "0.5", "is_locked": 0}],
			"creators": [{"address": "Creator1", "malicious_address": 0}],
			"dex": [{"dex_name": "Raydium", "price": "150.1", "tvl": "1000", "fee_rate": "0.0025", "day": {"volume": "5", "price_max": "151", "price_min": "149"}}],
			"trusted_token": 1,
			"non_transferable": "1",
			"transfer_fee": {"fee_rate": "0.01"},
			"transfer_hook": [{"program": "Hook1"}],
			"holder_count": 42,
			"total_supply": "1000000"
		}`
		p, err := decodePayload(KindSolana, json.RawMessage(raw))
		require.NoError(t, err)
		tok := p.normalize(solMint)

		assert.Equal(t, "Wrapped SOL", tok.TokenName.String())
		assert.Equal(t, "SOL", tok.TokenSymbol.String())
		assert.Equal(t, "wrapped", tok.Description.String())
		assert.Equal(t, "1", tok.MetadataMutable.Status.String())
		require.Len(t, tok.MetadataMutable.Addresses, 1)
		assert.Equal(t, "Auth111", tok.MetadataMutable.Addresses[0].Address)
		assert.Equal(t, Int(1), tok.MetadataMutable.Addresses[0].MaliciousAddress)

		assert.Equal(t, "1", tok.Mintable.Status.String())
		assert.Equal(t, Str("1"), tok.IsMintable)
		assert.Equal(t, "Mint111", tok.Mintable.Addresses[0].Address)
		assert.Equal(t, "0", tok.Freezable.Status.String())

		require.Len(t, tok.Holders, 1)
		assert.Equal(t, "Acc1", tok.Holders[0].Address)
		assert.Equal(t, "0.5", tok.Holders[0].Percent.String())

		require.Len(t, tok.DEX, 1)
		assert.Equal(t, "Raydium", tok.DEX[0].Name.String())
		require.NotNil(t, tok.DEX[0].Day)
		assert.Equal(t, "151", tok.DEX[0].Day.PriceMax.String())

		assert.Equal(t, Int(1), tok.TrustedToken)
		assert.Equal(t, Str("1"), tok.NonTransferable)
		assert.Equal(t, map[string]any{"fee_rate": "0.01"}, tok.TransferFee)
		assert.Len(t, tok.TransferHook, 1)
		assert.Equal(t, Num("42"), tok.HolderCount)
	})

	t.Run("unexpected transfer shapes fall back to defaults", func(t *testing.T) {
		p, err := decodePayload(KindSolana, json.RawMessage(`{"transfer_fee": "none", "transfer_hook": {}}`))
		require.NoError(t, err)
		tok := p.normalize(solMint)
		assert.Equal(t, map[string]any{}, tok.TransferFee)
		assert.Equal(t, []any{}, tok.TransferHook)
	})
}

func TestEVMNormalization(t *testing.T) {
	raw := `{
		"is_open_source": "1",
		"is_proxy": 0,
		"is_honeypot": false,
		"buy_tax": "0.05",
		"owner_address": "",
		"token_name": "Tether",
		"lp_holders": [{"address": "0xlp", "balance": "1", "percent": "0.9", "is_locked": 1, "tag": "UniCrypt"}],
		"holders": [{"address": "0xh1", "balance": "5"}],
		"dex": [{"name": "UniswapV2", "liquidity": "100", "pair": "0xpair"}]
	}`
	p, err := decodePayload(KindEVM, json.RawMessage(raw))
	require.NoError(t, err)
	tok := p.normalize(evmAddr)

	assert.Equal(t, KindEVM, tok.Kind)
	assert.Equal(t, Str("1"), tok.IsOpenSource)
	assert.Equal(t, Num("0"), tok.IsProxy)
	assert.Equal(t, Bool(false), tok.IsHoneypot)
	assert.Equal(t, Str("0.05"), tok.BuyTax)
	assert.Equal(t, Str(""), tok.OwnerAddress)
	assert.False(t, tok.GasAbuse.Present())

	require.Len(t, tok.LPHolders, 1)
	assert.Equal(t, "UniCrypt", tok.LPHolders[0].Tag.String())
	require.Len(t, tok.Holders, 1)
	require.Len(t, tok.DEX, 1)
	assert.Equal(t, "UniswapV2", tok.DEX[0].Name.String())

	assert.False(t, tok.Mintable.Status.Present(), "solana-only fields stay absent")
	assert.Equal(t, []any{}, tok.TransferHook)
}

func TestDecodeRejectsNonObjects(t *testing.T) {
	_, err := decodePayload(KindEVM, json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}
