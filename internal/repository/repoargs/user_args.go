package repoargs

type CreateUser struct {
	Name  string
	Email string
}
