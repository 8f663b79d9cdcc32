package order

// ComputeSplit fixes the platform fee and provider payout for a price at
// order-creation time. All amounts are integer minor-currency units; the fee
// rounds half-up on the commission (in basis points), so a $150.00 order at
// 1500 bps yields fee 2250 and payout 12750. Statements and ledgers read the
// stored fields back rather than recomputing, so the rule only needs to hold
// here.
func ComputeSplit(priceCents int64, commissionBps int) (feeCents, payoutCents int64) {
	feeCents = (priceCents*int64(commissionBps) + 5000) / 10000
	payoutCents = priceCents - feeCents
	return feeCents, payoutCents
}
