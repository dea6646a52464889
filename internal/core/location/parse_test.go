package location_test

import (
	"testing"

	. "gopkg.in/check.v1"

	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/core/location"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

type ParseSuite struct{}

var _ = Suite(&ParseSuite{})

func (s *ParseSuite) TestBareCity(c *C) {
	c.Assert(location.Parse("Atlanta"), DeepEquals, domain.ParsedLocation{City: "Atlanta"})
	c.Assert(location.Parse("  Atlanta  "), DeepEquals, domain.ParsedLocation{City: "Atlanta"})
}

func (s *ParseSuite) TestStateAbbreviation(c *C) {
	p := location.Parse("Atlanta, GA")
	c.Assert(p.City, Equals, "Atlanta")
	c.Assert(p.State, Equals, "GA")
	c.Assert(p.Country, Equals, "United States")

	// The abbreviation is kept as written.
	p = location.Parse("Portland, or")
	c.Assert(p.State, Equals, "or")
	c.Assert(p.Country, Equals, "United States")
}

func (s *ParseSuite) TestStateFullName(c *C) {
	p := location.Parse("Springfield, Illinois")
	c.Assert(p, DeepEquals, domain.ParsedLocation{City: "Springfield", State: "IL", Country: "United States"})

	p = location.Parse("Washington, district of columbia")
	c.Assert(p.State, Equals, "DC")
}

func (s *ParseSuite) TestCountryAlias(c *C) {
	c.Assert(location.Parse("London, UK").Country, Equals, "United Kingdom")
	c.Assert(location.Parse("Dubai, U.A.E.").Country, Equals, "United Arab Emirates")
	c.Assert(location.Parse("Seattle, usa").Country, Equals, "United States")
	c.Assert(location.Parse("Toronto, can").Country, Equals, "Canada")
}

// "CA" is California before it is Canada.
func (s *ParseSuite) TestCAIsAState(c *C) {
	p := location.Parse("Los Angeles, CA")
	c.Assert(p.State, Equals, "CA")
	c.Assert(p.Country, Equals, "United States")
}

func (s *ParseSuite) TestUnknownCountryVerbatim(c *C) {
	p := location.Parse("Paris, France")
	c.Assert(p, DeepEquals, domain.ParsedLocation{City: "Paris", Country: "France"})
	c.Assert(p.HasState(), Equals, false)
}

func (s *ParseSuite) TestThreeSegments(c *C) {
	p := location.Parse("Portland, Oregon, USA")
	c.Assert(p, DeepEquals, domain.ParsedLocation{City: "Portland", State: "OR", Country: "United States"})

	p = location.Parse("Toronto, Ontario, CA")
	c.Assert(p.State, Equals, "Ontario")
	c.Assert(p.Country, Equals, "Canada")
}

func (s *ParseSuite) TestExtraSegmentsFoldIntoCountry(c *C) {
	p := location.Parse("Springfield, IL, United States, North America")
	c.Assert(p.State, Equals, "IL")
	c.Assert(p.Country, Equals, "United States, North America")
}

func (s *ParseSuite) TestTrailingEmptySegmentIgnored(c *C) {
	c.Assert(location.Parse("Atlanta,"), DeepEquals, domain.ParsedLocation{City: "Atlanta"})
	c.Assert(location.Parse("Atlanta, , "), DeepEquals, domain.ParsedLocation{City: "Atlanta"})
}

func (s *ParseSuite) TestEmptyCitySegmentDegradesToBareCity(c *C) {
	for raw, want := range map[string]string{
		", FL":             ", FL",
		"  , Florida ":     ", Florida",
		", Ontario, CA":    ", Ontario, CA",
		",,,Paris":         ",,,Paris",
		" ,United Kingdom": ",United Kingdom",
	} {
		p := location.Parse(raw)
		c.Assert(p, DeepEquals, domain.ParsedLocation{City: want}, Commentf("input %q", raw))
		c.Assert(p.Qualified(), Equals, false, Commentf("input %q", raw))
	}
}

func (s *ParseSuite) TestCityNeverEmptyForNonBlankInput(c *C) {
	for _, raw := range []string{"x", ",", " , , ", "a,b,c,d,e", ",,,Paris"} {
		c.Assert(location.Parse(raw).City, Not(Equals), "", Commentf("input %q", raw))
	}
}
