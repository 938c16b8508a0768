package replay

import (
	"encoding/json"
	"fmt"

	"clmmEngine/internal/custody"
	"clmmEngine/internal/model"
	"clmmEngine/internal/pool"
	"clmmEngine/internal/position"
)

func decodeParams[T any](op model.Operation) (T, error) {
	var v T
	if len(op.Params) == 0 {
		return v, fmt.Errorf("%s: missing params", op.Op)
	}
	if err := json.Unmarshal(op.Params, &v); err != nil {
		return v, fmt.Errorf("%s params: %w", op.Op, err)
	}
	return v, nil
}

func (r *Runner) dispatch(p *pool.Pool, op model.Operation) (any, error) {
	switch op.Op {
	case model.OpOpenPosition:
		params, err := decodeParams[model.OpenPositionParams](op)
		if err != nil {
			return nil, err
		}
		id, err := p.OpenPosition(params.TickLower, params.TickUpper)
		if err != nil {
			return nil, err
		}
		r.opened = append(r.opened, id)
		return model.PositionResult{Position: id.Hex()}, nil

	case model.OpClosePosition:
		id, err := r.positionParam(op)
		if err != nil {
			return nil, err
		}
		if err := p.ClosePosition(id); err != nil {
			return nil, err
		}
		return model.PositionResult{Position: id.Hex()}, nil

	case model.OpAddLiquidity:
		params, err := decodeParams[model.LiquidityParams](op)
		if err != nil {
			return nil, err
		}
		id, err := ParsePosition(params.Position, r.opened)
		if err != nil {
			return nil, err
		}
		delta, err := ParseU128(params.Liquidity)
		if err != nil {
			return nil, err
		}
		receipt, err := p.AddLiquidity(id, delta)
		if err != nil {
			return nil, err
		}
		return settleAdd(p, receipt)

	case model.OpAddLiquidityFixedToken:
		params, err := decodeParams[model.FixedTokenParams](op)
		if err != nil {
			return nil, err
		}
		id, err := ParsePosition(params.Position, r.opened)
		if err != nil {
			return nil, err
		}
		receipt, err := p.AddLiquidityFixedToken(id, params.Amount, params.FixedA)
		if err != nil {
			return nil, err
		}
		return settleAdd(p, receipt)

	case model.OpRemoveLiquidity:
		params, err := decodeParams[model.LiquidityParams](op)
		if err != nil {
			return nil, err
		}
		id, err := ParsePosition(params.Position, r.opened)
		if err != nil {
			return nil, err
		}
		delta, err := ParseU128(params.Liquidity)
		if err != nil {
			return nil, err
		}
		a, b, err := p.RemoveLiquidity(id, delta)
		if err != nil {
			return nil, err
		}
		return model.LiquidityResult{Position: id.Hex(), Liquidity: delta.String(), AmountA: a, AmountB: b}, nil

	case model.OpSwap, model.OpFlashSwap:
		params, err := decodeParams[model.SwapParams](op)
		if err != nil {
			return nil, err
		}
		limit, err := ParseSqrtPriceLimit(params.SqrtPriceLimit, params.AToB)
		if err != nil {
			return nil, err
		}
		sp := pool.SwapParams{
			AToB:           params.AToB,
			ByAmountIn:     params.ByAmountIn,
			Amount:         params.Amount,
			SqrtPriceLimit: limit,
			RefFeeRate:     params.RefFeeRate,
		}
		if op.Op == model.OpSwap {
			res, err := p.Swap(sp)
			if err != nil {
				return nil, err
			}
			return SwapRow(params.AToB, res), nil
		}
		res, receipt, err := p.FlashSwap(sp)
		if err != nil {
			return nil, err
		}
		payA, payB := receipt.PayAmounts()
		if err := p.RepayFlashSwap(receipt, payA, payB); err != nil {
			return nil, err
		}
		return SwapRow(params.AToB, res), nil

	case model.OpCollectFee:
		id, err := r.positionParam(op)
		if err != nil {
			return nil, err
		}
		a, b, err := p.CollectFee(id)
		if err != nil {
			return nil, err
		}
		return model.CollectResult{Position: id.Hex(), AmountA: a, AmountB: b}, nil

	case model.OpCollectReward:
		params, err := decodeParams[model.CollectRewardParams](op)
		if err != nil {
			return nil, err
		}
		id, err := ParsePosition(params.Position, r.opened)
		if err != nil {
			return nil, err
		}
		amount, err := p.CollectReward(id, params.RewardID)
		if err != nil {
			return nil, err
		}
		return model.RewardResult{Position: id.Hex(), RewardID: params.RewardID, Amount: amount}, nil

	case model.OpCollectProtocolFee:
		a, b, err := p.CollectProtocolFee()
		if err != nil {
			return nil, err
		}
		return model.CollectResult{AmountA: a, AmountB: b}, nil

	case model.OpSetFeeRate, model.OpSetProtocolFeeRate:
		params, err := decodeParams[model.FeeRateParams](op)
		if err != nil {
			return nil, err
		}
		if op.Op == model.OpSetFeeRate {
			return nil, p.SetFeeRate(params.Rate)
		}
		return nil, p.SetProtocolFeeRate(params.Rate)

	case model.OpPause:
		p.Pause()
		return nil, nil

	case model.OpUnpause:
		p.Unpause()
		return nil, nil

	case model.OpAddRewarder:
		params, err := decodeParams[model.RewarderParams](op)
		if err != nil {
			return nil, err
		}
		return nil, p.AddRewarder(params.RewardID)

	case model.OpSetEmission:
		params, err := decodeParams[model.EmissionParams](op)
		if err != nil {
			return nil, err
		}
		emission, err := ParseU128(params.EmissionsPerSecond)
		if err != nil {
			return nil, err
		}
		return nil, p.SetEmission(params.RewardID, emission)

	case model.OpDeposit:
		params, err := decodeParams[model.DepositParams](op)
		if err != nil {
			return nil, err
		}
		if err := r.ledger.Apply(custody.Transfer{Coin: params.Coin, Amount: params.Amount, Direction: custody.In}); err != nil {
			return nil, err
		}
		return params, nil

	default:
		return nil, fmt.Errorf("%q: %w", op.Op, ErrUnknownOp)
	}
}

func (r *Runner) positionParam(op model.Operation) (position.ID, error) {
	params, err := decodeParams[model.PositionParams](op)
	if err != nil {
		return position.ID{}, err
	}
	return ParsePosition(params.Position, r.opened)
}

func settleAdd(p *pool.Pool, receipt *pool.AddLiquidityReceipt) (model.LiquidityResult, error) {
	if err := p.RepayAddLiquidity(receipt, receipt.AmountA, receipt.AmountB); err != nil {
		return model.LiquidityResult{}, err
	}
	return model.LiquidityResult{
		Position:  receipt.PositionID.Hex(),
		Liquidity: receipt.Liquidity.String(),
		AmountA:   receipt.AmountA,
		AmountB:   receipt.AmountB,
	}, nil
}
