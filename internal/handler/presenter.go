package handler

import (
	"github.com/dukerupert/foodgram/internal/media"
	"github.com/dukerupert/foodgram/internal/model"
	"github.com/dukerupert/foodgram/internal/store"
)

type userView struct {
	ID           int64   `json:"id"`
	Email        string  `json:"email"`
	Username     string  `json:"username"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	IsSubscribed bool    `json:"is_subscribed"`
	Avatar       *string `json:"avatar"`
}

type recipeView struct {
	ID               int64                    `json:"id"`
	Tags             []model.Tag              `json:"tags"`
	Author           userView                 `json:"author"`
	Ingredients      []model.RecipeIngredient `json:"ingredients"`
	IsFavorited      bool                     `json:"is_favorited"`
	IsInShoppingCart bool                     `json:"is_in_shopping_cart"`
	Name             string                   `json:"name"`
	Image            string                   `json:"image"`
	Text             string                   `json:"text"`
	CookingTime      int                      `json:"cooking_time"`
}

type shortRecipeView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type subscriptionView struct {
	userView
	Recipes      []shortRecipeView `json:"recipes"`
	RecipesCount int               `json:"recipes_count"`
}

type recipeShape int

const (
	fullShape recipeShape = iota
	shortShape
)

// recipeShapes selects the representation each recipe operation answers with.
var recipeShapes = map[string]recipeShape{
	"list":          fullShape,
	"retrieve":      fullShape,
	"create":        fullShape,
	"update":        fullShape,
	"favorite":      shortShape,
	"shopping_cart": shortShape,
}

// Presenter renders models for a particular viewer. Viewer 0 is anonymous
// and sees every relation flag as false.
type Presenter struct {
	users     *store.UserStore
	recipes   *store.RecipeStore
	subs      *store.SubscriptionStore
	favorites *store.FavoriteStore
	cart      *store.CartStore
}

func NewPresenter(us *store.UserStore, rs *store.RecipeStore, ss *store.SubscriptionStore, fs *store.FavoriteStore, cs *store.CartStore) *Presenter {
	return &Presenter{users: us, recipes: rs, subs: ss, favorites: fs, cart: cs}
}

func (p *Presenter) user(viewer int64, u *model.User) (userView, error) {
	v := userView{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
	if u.Avatar != "" {
		url := media.URL(u.Avatar)
		v.Avatar = &url
	}
	if viewer != 0 && viewer != u.ID {
		ok, err := p.subs.Exists(viewer, u.ID)
		if err != nil {
			return userView{}, err
		}
		v.IsSubscribed = ok
	}
	return v, nil
}

func (p *Presenter) userList(viewer int64, users []model.User) ([]userView, error) {
	out := make([]userView, 0, len(users))
	for i := range users {
		v, err := p.user(viewer, &users[i])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// recipe renders r in the shape registered for op.
func (p *Presenter) recipe(viewer int64, op string, r *model.Recipe) (any, error) {
	if recipeShapes[op] == shortShape {
		return shortRecipe(r), nil
	}
	return p.fullRecipe(viewer, r)
}

func (p *Presenter) recipeList(viewer int64, op string, recipes []model.Recipe) ([]any, error) {
	out := make([]any, 0, len(recipes))
	for i := range recipes {
		v, err := p.recipe(viewer, op, &recipes[i])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func shortRecipe(r *model.Recipe) shortRecipeView {
	return shortRecipeView{
		ID:          r.ID,
		Name:        r.Name,
		Image:       media.URL(r.Image),
		CookingTime: r.CookingTime,
	}
}

func (p *Presenter) fullRecipe(viewer int64, r *model.Recipe) (recipeView, error) {
	author, err := p.users.GetByID(r.AuthorID)
	if err != nil {
		return recipeView{}, err
	}
	v := recipeView{
		ID:          r.ID,
		Tags:        r.Tags,
		Ingredients: r.Ingredients,
		Name:        r.Name,
		Image:       media.URL(r.Image),
		Text:        r.Text,
		CookingTime: r.CookingTime,
	}
	if author != nil {
		if v.Author, err = p.user(viewer, author); err != nil {
			return recipeView{}, err
		}
	}
	if viewer != 0 {
		if v.IsFavorited, err = p.favorites.Exists(viewer, r.ID); err != nil {
			return recipeView{}, err
		}
		if v.IsInShoppingCart, err = p.cart.Exists(viewer, r.ID); err != nil {
			return recipeView{}, err
		}
	}
	return v, nil
}

// subscription renders author with up to recipesLimit of their newest
// recipes. A limit of 0 includes all of them.
func (p *Presenter) subscription(viewer int64, author *model.User, recipesLimit int) (subscriptionView, error) {
	uv, err := p.user(viewer, author)
	if err != nil {
		return subscriptionView{}, err
	}
	f := model.RecipeFilter{AuthorID: author.ID}
	count, err := p.recipes.Count(f)
	if err != nil {
		return subscriptionView{}, err
	}
	f.Limit = recipesLimit
	recipes, err := p.recipes.List(f)
	if err != nil {
		return subscriptionView{}, err
	}

	short := make([]shortRecipeView, 0, len(recipes))
	for i := range recipes {
		short = append(short, shortRecipe(&recipes[i]))
	}
	return subscriptionView{userView: uv, Recipes: short, RecipesCount: count}, nil
}
