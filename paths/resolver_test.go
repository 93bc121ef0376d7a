package paths_test

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/relloyd/bronze/paths"
)

var _ = Describe("Resolver", func() {
	var (
		tmp      string
		envVar   = "BRONZE_TEST_ASSIGNMENT_DIR"
		resolver *paths.Resolver
	)

	mkfile := func(p string) {
		Expect(os.MkdirAll(filepath.Dir(p), 0755)).To(Succeed())
		Expect(ioutil.WriteFile(p, []byte("a,b\n1,2\n"), 0644)).To(Succeed())
	}

	BeforeEach(func() {
		var err error
		tmp, err = ioutil.TempDir("", "bronze-paths-")
		Expect(err).NotTo(HaveOccurred())
		tmp, err = filepath.EvalSymlinks(tmp)
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Unsetenv(envVar)).To(Succeed())
		resolver = &paths.Resolver{EnvVar: envVar}
	})

	AfterEach(func() {
		_ = os.Unsetenv(envVar)
		_ = os.RemoveAll(tmp)
	})

	It("finds the file when the start directory is inside the project root", func() {
		mkfile(filepath.Join(tmp, "Assignment", "data", "lms_loan_daily.csv"))
		start := filepath.Join(tmp, "Assignment", "notebooks", "bronze")
		Expect(os.MkdirAll(start, 0755)).To(Succeed())
		resolver.StartDir = start
		p, err := resolver.Resolve("lms_loan_daily.csv")
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(filepath.Join(tmp, "Assignment", "data", "lms_loan_daily.csv")))
	})

	It("finds a marker directory that is a child of an ancestor", func() {
		mkfile(filepath.Join(tmp, "MLE_Assignment", "data", "lms_loan_daily.csv"))
		start := filepath.Join(tmp, "scripts")
		Expect(os.MkdirAll(start, 0755)).To(Succeed())
		resolver.StartDir = start
		p, err := resolver.Resolve("lms_loan_daily.csv")
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(filepath.Join(tmp, "MLE_Assignment", "data", "lms_loan_daily.csv")))
	})

	It("tries the environment override before the start directory", func() {
		mkfile(filepath.Join(tmp, "override", "Assignment", "data", "lms_loan_daily.csv"))
		mkfile(filepath.Join(tmp, "start", "Assignment", "data", "lms_loan_daily.csv"))
		Expect(os.Setenv(envVar, filepath.Join(tmp, "override"))).To(Succeed())
		resolver.StartDir = filepath.Join(tmp, "start")
		p, err := resolver.Resolve("lms_loan_daily.csv")
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(filepath.Join(tmp, "override", "Assignment", "data", "lms_loan_daily.csv")))
	})

	It("uses a custom sub path", func() {
		mkfile(filepath.Join(tmp, "Assignment", "raw", "x.csv"))
		resolver.StartDir = filepath.Join(tmp, "Assignment")
		resolver.SubPath = "raw"
		p, err := resolver.Resolve("x.csv")
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(filepath.Join(tmp, "Assignment", "raw", "x.csv")))
	})

	It("returns FileNotFoundError when the project root exists but the file does not", func() {
		Expect(os.MkdirAll(filepath.Join(tmp, "Assignment", "data"), 0755)).To(Succeed())
		resolver.StartDir = filepath.Join(tmp, "Assignment")
		_, err := resolver.Resolve("lms_loan_daily.csv")
		var fnf *paths.FileNotFoundError
		Expect(errors.As(err, &fnf)).To(BeTrue())
		Expect(fnf.Path).To(Equal(filepath.Join(tmp, "Assignment", "data", "lms_loan_daily.csv")))
	})

	It("returns DirectoryNotFoundError when no marker exists above the root", func() {
		start := filepath.Join(tmp, "a", "b")
		Expect(os.MkdirAll(start, 0755)).To(Succeed())
		resolver.StartDir = start
		resolver.Markers = []string{"NoSuchProjectMarker-7c1e"}
		_, err := resolver.Resolve("lms_loan_daily.csv")
		var dnf *paths.DirectoryNotFoundError
		Expect(errors.As(err, &dnf)).To(BeTrue())
		Expect(dnf.Roots).To(ConsistOf(start))
		Expect(err.Error()).To(ContainSubstring("NoSuchProjectMarker-7c1e"))
	})

	Describe("ResolveSource", func() {
		It("accepts an explicit path that exists", func() {
			p := filepath.Join(tmp, "elsewhere", "loans.csv")
			mkfile(p)
			got, err := resolver.ResolveSource(p)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(p))
		})

		It("rejects an explicit path that does not exist", func() {
			_, err := resolver.ResolveSource(filepath.Join(tmp, "missing.csv"))
			var fnf *paths.FileNotFoundError
			Expect(errors.As(err, &fnf)).To(BeTrue())
		})

		It("resolves a bare file name under the project", func() {
			mkfile(filepath.Join(tmp, "Assignment", "data", "lms_loan_daily.csv"))
			resolver.StartDir = tmp
			got, err := resolver.ResolveSource("lms_loan_daily.csv")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(filepath.Join(tmp, "Assignment", "data", "lms_loan_daily.csv")))
		})
	})
})
