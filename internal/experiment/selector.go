package experiment

import "math"

// SelectVariant maps a hash value onto the weighted variants of def.
//
// The bucket is hashValue mod totalWeight, and the winner is the first variant
// (in declared order) whose cumulative weight exceeds the bucket, i.e. each
// variant owns the half-open interval [cumulativeBefore, cumulativeAfter).
// Reordering equal-weight variants keeps the split sizes but moves individual users.
func SelectVariant(hashValue uint32, def Definition) string {
	if !def.Enabled || len(def.Variants) == 0 {
		return def.DefaultVariant()
	}

	var total float64
	for _, v := range def.Variants {
		total += math.Max(0, v.Weight)
	}
	if total <= 0 {
		return def.DefaultVariant()
	}

	bucket := math.Mod(float64(hashValue), total)

	var cumulative float64
	lastPositive := ""
	for _, v := range def.Variants {
		w := math.Max(0, v.Weight)
		if w == 0 {
			continue
		}
		cumulative += w
		lastPositive = v.Name
		if bucket < cumulative {
			return v.Name
		}
	}

	// Rounding in fractional weights can leave the bucket at the very end of the range.
	return lastPositive
}

// VariantFor buckets userID into def.
func VariantFor(def Definition, userID string) string {
	return SelectVariant(Hash(bucketKey(def.ID, userID)), def)
}
