package bvh

import (
	"github.com/achilleasa/polaris-bvh/types"
	"github.com/chewxy/math32"
)

// Search for the best SAH split plane among the bin boundaries along axis.
// If an acceptable plane is found, the index range is partitioned so that
// primitives left of the plane come first and the absolute index of the
// first right-side primitive is returned.
//
// The cost of a split is normalized by the primitive count:
//
// traversal + intersection * (lCount * lArea + rCount * rArea) / (parentArea * count)
//
// so that not splitting at all costs exactly the intersection cost.
func (b *builder) sahSplit(start, count int, axis types.Axis, centroidBox, parentBox types.AABB) (int, bool) {
	parentArea := parentBox.SurfaceArea()
	if parentArea <= 0 {
		return 0, false
	}

	for index := range b.bins {
		b.bins[index] = bin{bbox: types.EmptyAABB()}
	}

	minCentroid := centroidBox.Min[axis]
	scale := float32(len(b.bins)) / (centroidBox.Max[axis] - minCentroid)
	for _, volIndex := range b.indices[start : start+count] {
		binIndex := b.binIndex(b.centers[volIndex][axis], minCentroid, scale)
		b.bins[binIndex].count++
		b.bins[binIndex].bbox = types.Merge(b.bins[binIndex].bbox, b.bounds[volIndex])
	}

	// Candidate plane i separates bins [0, i] from bins [i+1, binCount)
	planes := len(b.bins) - 1
	leftBox, rightBox := types.EmptyAABB(), types.EmptyAABB()
	leftCount, rightCount := 0, 0
	for plane := 0; plane < planes; plane++ {
		leftBox = types.Merge(leftBox, b.bins[plane].bbox)
		leftCount += b.bins[plane].count
		b.leftArea[plane] = leftBox.SurfaceArea()
		b.leftCount[plane] = leftCount

		rightBin := planes - plane
		rightBox = types.Merge(rightBox, b.bins[rightBin].bbox)
		rightCount += b.bins[rightBin].count
		b.rightArea[rightBin-1] = rightBox.SurfaceArea()
		b.rightCount[rightBin-1] = rightCount
	}

	bestPlane := -1
	bestCost := math32.Inf(1)
	for plane := 0; plane < planes; plane++ {
		lCount, rCount := b.leftCount[plane], b.rightCount[plane]
		if lCount == 0 || rCount == 0 {
			continue
		}

		imbalance := math32.Abs(float32(lCount-rCount)) / float32(lCount+rCount)
		if imbalance >= b.opts.ImbalanceThreshold {
			continue
		}

		cost := b.opts.TraversalCost + b.opts.IntersectionCost*
			(float32(lCount)*b.leftArea[plane]+float32(rCount)*b.rightArea[plane])/(parentArea*float32(count))
		if cost < bestCost {
			bestCost = cost
			bestPlane = plane
		}
	}

	if bestPlane == -1 || bestCost > b.opts.SplitCostThreshold {
		return 0, false
	}

	// Stable partition: keep the relative order of primitives on each side
	left := b.partitioned[:0]
	right := b.partitioned[b.leftCount[bestPlane]:b.leftCount[bestPlane]]
	for _, volIndex := range b.indices[start : start+count] {
		if b.binIndex(b.centers[volIndex][axis], minCentroid, scale) <= bestPlane {
			left = append(left, volIndex)
		} else {
			right = append(right, volIndex)
		}
	}
	copy(b.indices[start:], left)
	copy(b.indices[start+len(left):], right)

	return start + len(left), true
}

// Map a centroid coordinate to a bin. Coordinates at the far end of the
// centroid box are clamped into the last bin.
func (b *builder) binIndex(coord, minCentroid, scale float32) int {
	binIndex := int((coord - minCentroid) * scale)
	if binIndex >= len(b.bins) {
		binIndex = len(b.bins) - 1
	} else if binIndex < 0 {
		binIndex = 0
	}
	return binIndex
}

// Split the index range at its midpoint after partially ordering it by
// centroid coordinate along axis so that the midpoint element is in its
// sorted position. Returns the absolute midpoint index.
func (b *builder) medianSplit(start, count int, axis types.Axis) int {
	mid := start + count/2
	b.selectNth(start, start+count, mid, axis)
	return mid
}

// Rearrange indices[lo:hi] so that indices[k] holds the element that would
// be there if the range was sorted, with smaller elements before it and
// larger ones after it.
func (b *builder) selectNth(lo, hi, k int, axis types.Axis) {
	for hi-lo > 1 {
		pivotPos := b.medianOfThree(lo, lo+(hi-lo)/2, hi-1, axis)
		last := hi - 1
		b.indices[pivotPos], b.indices[last] = b.indices[last], b.indices[pivotPos]
		pivot := b.indices[last]

		store := lo
		for i := lo; i < last; i++ {
			if b.less(b.indices[i], pivot, axis) {
				b.indices[i], b.indices[store] = b.indices[store], b.indices[i]
				store++
			}
		}
		b.indices[store], b.indices[last] = b.indices[last], b.indices[store]

		switch {
		case k == store:
			return
		case k < store:
			hi = store
		default:
			lo = store + 1
		}
	}
}

// Get the position holding the median of the three given positions.
func (b *builder) medianOfThree(p0, p1, p2 int, axis types.Axis) int {
	v0, v1, v2 := b.indices[p0], b.indices[p1], b.indices[p2]
	if b.less(v1, v0, axis) {
		p0, p1 = p1, p0
		v0, v1 = v1, v0
	}
	if b.less(v2, v1, axis) {
		p1 = p2
		v1 = v2
		if b.less(v1, v0, axis) {
			p1 = p0
		}
	}
	return p1
}

// Order volumes by centroid coordinate; ties are broken by volume index so
// that builds are deterministic.
func (b *builder) less(volA, volB uint32, axis types.Axis) bool {
	ca, cb := b.centers[volA][axis], b.centers[volB][axis]
	if ca != cb {
		return ca < cb
	}
	return volA < volB
}
