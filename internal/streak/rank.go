package streak

// ResolveRank picks the rank with the greatest MinDays not exceeding days.
// The table is ascending and guaranteed by catalog validation to contain a
// MinDays=0 floor, so resolution is total. An empty table (a programming
// error) degrades to the zero Rank instead of panicking.
func ResolveRank(days int, table []Rank) Rank {
	for i := len(table) - 1; i >= 0; i-- {
		if table[i].MinDays <= days {
			return table[i]
		}
	}
	if len(table) > 0 {
		return table[0]
	}
	return Rank{}
}
