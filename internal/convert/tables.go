// Package convert maps raw analog samples to physical lambda and oxygen
// values. The lookup tables are built once at package init from fixed
// anchor points and are read-only thereafter; lookups are direct indexed
// reads with no interpolation.
package convert

// Lambda table domain (raw UA counts).
const (
	LambdaFloor   = 39
	LambdaCeiling = 791
)

// Oxygen table domain (raw UA counts). Oxygen content has no physical
// meaning below the floor; inputs above the ceiling are clamped to the
// ceiling before lookup.
const (
	OxygenFloor   = 425
	OxygenCeiling = 791
)

// anchor ties one raw sample to a physical value. Dense tables are
// filled in by linear interpolation between consecutive anchors.
type anchor struct {
	sample int
	value  float64
}

// Sensor characteristic anchors for the amplified pump-cell output.
// Samples between anchors are interpolated once at init.
var lambdaAnchors = []anchor{
	{39, 0.750},
	{190, 0.900},
	{307, 1.000},
	{400, 1.250},
	{520, 1.800},
	{600, 2.500},
	{680, 4.000},
	{740, 6.500},
	{791, 10.119},
}

var oxygenAnchors = []anchor{
	{425, 4.90},
	{520, 8.40},
	{600, 12.00},
	{680, 15.20},
	{740, 17.40},
	{791, 18.80},
}

var (
	lambdaTable = buildTable(lambdaAnchors)
	oxygenTable = buildTable(oxygenAnchors)
)

// buildTable expands anchors into a dense table covering every sample
// from the first anchor to the last. Anchor samples are written back
// verbatim afterwards so lookups at anchors are exact.
func buildTable(anchors []anchor) []float64 {
	floor := anchors[0].sample
	ceiling := anchors[len(anchors)-1].sample
	table := make([]float64, ceiling-floor+1)

	for i := 0; i < len(anchors)-1; i++ {
		a, b := anchors[i], anchors[i+1]
		span := float64(b.sample - a.sample)
		for s := a.sample; s <= b.sample; s++ {
			frac := float64(s-a.sample) / span
			table[s-floor] = a.value + (b.value-a.value)*frac
		}
	}

	for _, a := range anchors {
		table[a.sample-floor] = a.value
	}
	return table
}

// LambdaOf returns the lambda ratio for a raw lambda-proxy sample.
// Samples outside the domain clamp to the domain's minimum or maximum
// table value.
func LambdaOf(sample int) float64 {
	if sample < LambdaFloor {
		return lambdaTable[0]
	}
	if sample > LambdaCeiling {
		return lambdaTable[len(lambdaTable)-1]
	}
	return lambdaTable[sample-LambdaFloor]
}

// LambdaValid reports whether the sample falls inside the lambda table
// domain. Out-of-domain readings still convert (clamped) but are not a
// trustworthy measurement.
func LambdaValid(sample int) bool {
	return sample >= LambdaFloor && sample <= LambdaCeiling
}

// OxygenOf returns the oxygen percentage for a raw lambda-proxy sample.
// Samples above the ceiling are treated as the ceiling value; samples
// below the floor return 0, since oxygen content is only meaningful at
// lean readings.
func OxygenOf(sample int) float64 {
	if sample < OxygenFloor {
		return 0
	}
	if sample > OxygenCeiling {
		sample = OxygenCeiling
	}
	return oxygenTable[sample-OxygenFloor]
}

// OxygenValid reports whether the sample is in the oxygen table's
// meaningful range.
func OxygenValid(sample int) bool {
	return sample >= OxygenFloor
}
