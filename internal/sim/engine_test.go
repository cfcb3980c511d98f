package sim_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/placesim/internal/dataset"
	"github.com/san-kum/placesim/internal/placement"
	"github.com/san-kum/placesim/internal/sim"
)

func student(roll, name string, cgpa float64, domain string, skills ...string) placement.Student {
	return placement.Student{
		RollNo:     roll,
		Name:       name,
		CGPA:       cgpa,
		Department: placement.DepartmentFromRoll(roll),
		Domain1:    domain,
		Skills:     skills,
	}
}

func season() *dataset.Dataset {
	return &dataset.Dataset{
		Students: []placement.Student{
			student("21CS10001", "Asha", 9.0, "SDE", "Python", "DSA"),
			student("21CS10002", "Bilal", 8.0, "SDE", "Java"),
			student("21EE10003", "Chen", 7.0, "Core_EE", "Verilog"),
			student("21MA10004", "Dara", 6.5, "Data", "SQL"),
			student("21CH10005", "Esme", 5.5, "Finance", "Excel"),
		},
		Companies: []placement.Company{
			{Name: "Google", JobRole: "SWE", AllowedDepartments: []string{"ALL"}, MinCGPA: 7,
				RequiredSkills: []string{"python"}, VisitDay: 1, MinHires: 1, MaxHires: 2, InterviewSlots: 4},
			{Name: "Texas Instruments", JobRole: "Core", AllowedDepartments: []string{"EE"}, MinCGPA: 6.5,
				VisitDay: 1, MinHires: 1, MaxHires: 1, InterviewSlots: 2},
			{Name: "Jane Street", JobRole: "Quant", AllowedDepartments: []string{"ALL"}, MinCGPA: 8,
				VisitDay: 2, MinHires: 2, MaxHires: 3, InterviewSlots: 6},
		},
		Order: []dataset.Serial{
			{Number: 1, Companies: []string{"Google"}},
			{Number: 2, Companies: []string{"Texas", "Jane Street"}},
		},
		DepScores: map[string]float64{"CS": 8, "EE": 6},
	}
}

func run(data *dataset.Dataset, cfg sim.Config) *sim.Result {
	eng, err := sim.New(data, cfg)
	Expect(err).NotTo(HaveOccurred())
	res, err := eng.Run(context.Background())
	Expect(err).NotTo(HaveOccurred())
	return res
}

func companyByID(res *sim.Result, id string) sim.CompanyOutcome {
	for _, c := range res.Companies {
		if c.CompanyID == id {
			return c
		}
	}
	Fail("company " + id + " not in result")
	return sim.CompanyOutcome{}
}

var _ = Describe("Engine", func() {
	var (
		data *dataset.Dataset
		cfg  sim.Config
	)

	BeforeEach(func() {
		data = season()
		cfg = sim.DefaultConfig()
	})

	It("rejects an invalid config", func() {
		cfg.POptOut = 2
		_, err := sim.New(data, cfg)
		Expect(err).To(MatchError(ContainSubstring("p_opt_out")))
	})

	It("produces identical results for identical seeds", func() {
		a := run(season(), cfg)
		b := run(season(), cfg)
		Expect(a).To(Equal(b))
	})

	It("keeps the funnel ordered for every company", func() {
		for seed := int64(1); seed <= 20; seed++ {
			cfg.RandomSeed = seed
			res := run(data, cfg)
			for _, c := range res.Companies {
				Expect(c.Hired).To(BeNumerically("<=", c.Offered), c.CompanyID)
				Expect(c.Offered).To(BeNumerically("<=", c.Shortlisted), c.CompanyID)
				Expect(c.Shortlisted).To(BeNumerically("<=", c.Applicants), c.CompanyID)
				Expect(c.Shortlisted).To(BeNumerically("<=", c.InterviewSlots), c.CompanyID)
			}
		}
	})

	It("only places students with the company's eligibility", func() {
		companies := make(map[string]*placement.Company)
		for i := range data.Companies {
			companies[data.Companies[i].ID()] = &data.Companies[i]
		}
		students := make(map[string]*placement.Student)
		for i := range data.Students {
			students[data.Students[i].RollNo] = &data.Students[i]
		}

		for seed := int64(1); seed <= 20; seed++ {
			cfg.RandomSeed = seed
			res := run(data, cfg)
			for _, s := range res.Students {
				if s.Status != placement.StatusPlaced {
					Expect(s.PlacedCompany).To(BeEmpty())
					continue
				}
				c, ok := companies[s.PlacedCompany]
				Expect(ok).To(BeTrue(), s.PlacedCompany)
				Expect(placement.Eligible(students[s.RollNo], c)).To(BeTrue())
			}
		}
	})

	It("accounts for every student exactly once", func() {
		res := run(data, cfg)
		total := res.Count(placement.StatusPlaced) + res.Count(placement.StatusUnplaced) + res.Count(placement.StatusOptedOut)
		Expect(total).To(Equal(len(data.Students)))
		Expect(res.Count(placement.StatusOffered)).To(BeZero())
	})

	Context("without opt-outs", func() {
		BeforeEach(func() { cfg.POptOut = 0 })

		It("never opts anyone out", func() {
			for seed := int64(1); seed <= 10; seed++ {
				cfg.RandomSeed = seed
				res := run(data, cfg)
				Expect(res.Count(placement.StatusOptedOut)).To(BeZero())
				Expect(res.Statistics.OptedOutStudents).To(BeZero())
			}
		})

		It("hires the only eligible core candidate", func() {
			res := run(data, cfg)
			Expect(companyByID(res, "Texas Instruments_Core").Hired).To(Equal(1))
			Expect(res.Students[2].PlacedCompany).To(Equal("Texas Instruments_Core"))
		})

		It("records daily placement totals", func() {
			res := run(data, cfg)
			Expect(res.Statistics.DayWisePlacements).To(HaveKey(1))
			Expect(res.Statistics.DayWisePlacements).To(HaveKey(2))
			Expect(res.Statistics.DayWisePlacements[2]).To(Equal(res.Count(placement.StatusPlaced)))
			Expect(res.Statistics.CompanyWiseHires).To(HaveKeyWithValue("Texas Instruments_Core", 1))
		})
	})

	It("warns when a company cannot reach its minimum", func() {
		cfg.POptOut = 0
		res := run(data, cfg)
		Expect(res.Warnings).To(ContainElement(ContainSubstring("Jane Street_Quant has 0 candidates")))
		js := companyByID(res, "Jane Street_Quant")
		Expect(js.Hired).To(BeZero())
		Expect(js.TargetHires).To(Equal(2))
	})

	It("only simulates the requested days", func() {
		cfg.Days = []int{2}
		res := run(data, cfg)
		Expect(companyByID(res, "Google_SWE").Applicants).To(BeZero())
		Expect(res.Count(placement.StatusPlaced)).To(BeZero())
		Expect(res.Statistics.DayWisePlacements).To(HaveLen(1))
	})

	It("over-offers by the multiplier", func() {
		data = &dataset.Dataset{
			Students: []placement.Student{
				student("21CS10001", "A", 9.0, "SDE"),
				student("21CS10002", "B", 8.5, "SDE"),
				student("21CS10003", "C", 8.0, "SDE"),
				student("21CS10004", "D", 7.5, "SDE"),
			},
			Companies: []placement.Company{
				{Name: "Acme", JobRole: "SDE", AllowedDepartments: []string{"ALL"},
					VisitDay: 1, MinHires: 2, MaxHires: 2, InterviewSlots: 10},
			},
		}
		cfg.POptOut = 0
		res := run(data, cfg)
		acme := companyByID(res, "Acme_SDE")
		Expect(acme.Applicants).To(Equal(4))
		Expect(acme.TargetHires).To(Equal(2))
		Expect(acme.Offered).To(Equal(3))
		Expect(acme.Hired).To(Equal(3))
	})

	It("shortlists no more than the interview slots", func() {
		data.Companies[0].InterviewSlots = 1
		res := run(data, cfg)
		Expect(companyByID(res, "Google_SWE").Shortlisted).To(Equal(1))
	})

	It("reports progress up to completion", func() {
		eng, err := sim.New(data, cfg)
		Expect(err).NotTo(HaveOccurred())

		var fractions []float64
		eng.AddObserver(sim.ObserverFunc(func(_ string, f float64) {
			fractions = append(fractions, f)
		}))
		_, err = eng.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(fractions).NotTo(BeEmpty())
		Expect(fractions[len(fractions)-1]).To(Equal(1.0))
		for i := 1; i < len(fractions); i++ {
			Expect(fractions[i]).To(BeNumerically(">=", fractions[i-1]))
		}
	})

	It("stops when the context is cancelled", func() {
		eng, err := sim.New(data, cfg)
		Expect(err).NotTo(HaveOccurred())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = eng.Run(ctx)
		Expect(err).To(MatchError(context.Canceled))
	})
})
