package http

import (
	"io"
	"mime/multipart"
	"net/http"

	"shop-service/internal/domain"
	"shop-service/internal/services"

	"github.com/gin-gonic/gin"
)

const uploadField = "image"

func (h *Handler) CreateProduct(c *gin.Context) {
	var req domain.Product
	if !h.bind(c, &req) {
		return
	}
	p, err := h.products.CreateProduct(c.Request.Context(), identity(c), &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, p, "Product created successfully")
}

func (h *Handler) ListProducts(c *gin.Context) {
	page, limit := pageQuery(c)
	res, err := h.products.ListProducts(c.Request.Context(), services.ProductQuery{
		Category:   c.Query("category"),
		Search:     c.Query("search"),
		BestSeller: boolQuery(c, "bestSeller"),
		OnSale:     boolQuery(c, "onSale"),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, newProductPageResponse(res), "Products fetched successfully")
}

func (h *Handler) GetProduct(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.products.GetProduct(c.Request.Context(), productID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, p, "Product fetched successfully")
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req productPatchRequest
	if !h.bind(c, &req) {
		return
	}
	p, err := h.products.UpdateProduct(c.Request.Context(), identity(c), productID, req.patch())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, p, "Product updated successfully")
}

func (h *Handler) AddReview(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if !h.bind(c, &req) {
		return
	}
	p, err := h.products.AddReview(c.Request.Context(), identity(c), productID, req.Rating, req.Comment)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, p, "Review added successfully")
}

func (h *Handler) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respond(c, http.StatusBadRequest, nil, "expected a multipart form")
		return
	}
	headers := form.File[uploadField]
	files := make([]services.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, services.UploadFile{Name: fh.Filename, Open: opener(fh)})
	}

	urls, err := h.products.UploadImages(c.Request.Context(), identity(c), files)
	if err != nil {
		failWith(c, h.log, err, uploadResponse{URLs: urls})
		return
	}
	respond(c, http.StatusOK, uploadResponse{URLs: urls}, "Images uploaded successfully")
}

func opener(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return fh.Open()
	}
}
