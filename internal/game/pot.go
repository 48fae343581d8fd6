package game

import "sort"

// PotInput describes one finished hand from the settlement point of view.
type PotInput struct {
	// Bets is every seat's contribution for the whole hand, folded seats included.
	Bets [SeatCount]int64
	// Contending marks seats still eligible to win at showdown.
	Contending [SeatCount]bool
	// Ranks is read only for contending seats.
	Ranks  [SeatCount]HandRank
	Dealer int
}

// SettlePots peels pot layers off the smallest winning contribution first.
// Each layer is split evenly among the winners still holding a claim; odd
// chips go one at a time to those winners in seat order after the dealer.
// Contributions nobody could claim are handed back to their owners.
func SettlePots(in PotInput, ranker Ranker) [SeatCount]int64 {
	var prizes [SeatCount]int64
	remaining := in.Bets
	live := in.Contending

	for {
		seats := liveSeats(live)
		if len(seats) == 0 {
			break
		}
		winners := seats
		if len(seats) > 1 {
			ranks := make([]HandRank, len(seats))
			for i, seat := range seats {
				ranks[i] = in.Ranks[seat]
			}
			idx := ranker.Winners(ranks)
			winners = make([]int, 0, len(idx))
			for _, i := range idx {
				winners = append(winners, seats[i])
			}
			if len(winners) == 0 {
				winners = seats
			}
		}
		sort.SliceStable(winners, func(i, j int) bool {
			if remaining[winners[i]] != remaining[winners[j]] {
				return remaining[winners[i]] < remaining[winners[j]]
			}
			return seatDistance(in.Dealer, winners[i]) < seatDistance(in.Dealer, winners[j])
		})

		for len(winners) > 0 {
			cur := winners[0]
			layer := remaining[cur]
			var pot int64
			for i := range remaining {
				take := min64(layer, remaining[i])
				pot += take
				remaining[i] -= take
			}
			splitLayer(&prizes, pot, winners, in.Dealer)
			live[cur] = false
			winners = winners[1:]
		}
	}

	for i, left := range remaining {
		prizes[i] += left
	}
	return prizes
}

func splitLayer(prizes *[SeatCount]int64, pot int64, winners []int, dealer int) {
	if pot <= 0 || len(winners) == 0 {
		return
	}
	n := int64(len(winners))
	share := pot / n
	for _, w := range winners {
		prizes[w] += share
	}
	odd := pot - share*n
	if odd == 0 {
		return
	}
	order := append([]int(nil), winners...)
	sort.Slice(order, func(i, j int) bool {
		return seatDistance(dealer, order[i]) < seatDistance(dealer, order[j])
	})
	for i := int64(0); i < odd; i++ {
		prizes[order[i]]++
	}
}

func liveSeats(live [SeatCount]bool) []int {
	out := []int{}
	for i, ok := range live {
		if ok {
			out = append(out, i)
		}
	}
	return out
}

// seatDistance counts seats clockwise from the dealer; the dealer is last.
func seatDistance(dealer, seat int) int {
	d := (seat - dealer + SeatCount) % SeatCount
	if d == 0 {
		return SeatCount
	}
	return d
}
